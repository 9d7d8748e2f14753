package validation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"go.uber.org/zap"
)

// Services that can be marked as required
const (
	ServiceRedis = "redis"
	ServiceS3    = "s3"
	ServiceGorse = "gorse"
)

var knownServices = []string{ServiceRedis, ServiceS3, ServiceGorse}

// checkTimeout bounds each service check
const checkTimeout = 10 * time.Second

// Check tests one dependency. A nil Check means the service is not configured.
type Check func(ctx context.Context) error

// ServiceValidator fails startup when a service marked as required is missing
// or unreachable. Optional services are allowed to be absent.
type ServiceValidator struct {
	requiredServices []string
	checks           map[string]Check
}

// NewServiceValidator creates a validator whose required services come from
// the FANHUB_REQUIRE_<SERVICE> environment variables
func NewServiceValidator() *ServiceValidator {
	return NewServiceValidatorFor(parseRequiredServices())
}

// NewServiceValidatorFor creates a validator for an explicit list of required
// services
func NewServiceValidatorFor(required []string) *ServiceValidator {
	return &ServiceValidator{
		requiredServices: required,
		checks:           make(map[string]Check),
	}
}

// Register sets the check for a service. Passing nil records that the service
// is not configured.
func (sv *ServiceValidator) Register(service string, check Check) *ServiceValidator {
	sv.checks[service] = check
	return sv
}

// Required returns the services that must pass validation
func (sv *ServiceValidator) Required() []string {
	return sv.requiredServices
}

// ValidateServices runs the check of every required service
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("🔍 Validating required services",
		zap.Strings("services", sv.requiredServices),
	)

	for _, serviceName := range sv.requiredServices {
		check, registered := sv.checks[serviceName]
		if !registered {
			logger.Log.Warn("Unknown service type in validation",
				zap.String("service", serviceName),
			)
			continue
		}
		if check == nil {
			return fmt.Errorf("required service '%s' is not configured", serviceName)
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("❌ Required service validation failed",
				zap.String("service", serviceName),
				zap.Error(err),
			)
			return fmt.Errorf("required service '%s' validation failed: %w", serviceName, err)
		}

		logger.Log.Info("✅ Service validated successfully",
			zap.String("service", serviceName),
		)
	}

	logger.Log.Info("✅ All required services validated successfully")
	return nil
}

// parseRequiredServices reads FANHUB_REQUIRE_REDIS, FANHUB_REQUIRE_S3 and
// FANHUB_REQUIRE_GORSE
func parseRequiredServices() []string {
	var required []string
	for _, service := range knownServices {
		envVar := fmt.Sprintf("FANHUB_REQUIRE_%s", strings.ToUpper(service))
		if isTruthy(os.Getenv(envVar)) {
			required = append(required, service)
		}
	}
	return required
}

// isTruthy checks if a string value represents a truthy value
func isTruthy(value string) bool {
	if value == "" {
		return false
	}

	value = strings.ToLower(strings.TrimSpace(value))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}
