package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/recommendations"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tags handed out to seeded items. A small pool keeps tag overlap high so the
// related panel has something to show.
var seedTags = []string{
	"tour", "live", "backstage", "soundcheck", "fanart", "merch", "studio",
	"festival", "encore", "crowd", "acoustic", "rehearsal", "poster", "meetup",
}

// Seeder handles database seeding operations
type Seeder struct {
	db      *gorm.DB
	users   repository.UserRepository
	gallery repository.GalleryRepository
	gorse   *recommendations.GorseRESTClient
	rng     *rand.Rand
	cdnBase string
}

// NewSeeder creates a new seeder. The same seed produces the same data.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	// Seed returns an error only for invalid sources
	_ = gofakeit.Seed(seed)
	return &Seeder{
		db:      db,
		users:   repository.NewUserRepository(db),
		gallery: repository.NewGalleryRepository(db),
		rng:     rand.New(rand.NewSource(seed)),
		cdnBase: "https://picsum.photos/seed",
	}
}

// SetGorseClient makes the seeder push created items to Gorse
func (s *Seeder) SetGorseClient(gorse *recommendations.GorseRESTClient) {
	s.gorse = gorse
}

// SetCDNBase changes where seeded image URLs point
func (s *Seeder) SetCDNBase(base string) {
	if base != "" {
		s.cdnBase = strings.TrimRight(base, "/")
	}
}

// Result reports what a seeding run created
type Result struct {
	Creators int
	Fans     int
	Items    int
}

// SeedDev seeds a development database with creators, fans and gallery items
func (s *Seeder) SeedDev(ctx context.Context, creators, itemsPerCreator int) (*Result, error) {
	logger.Log.Info("Creating creators...", zap.Int("count", creators))
	creatorUsers, err := s.seedUsers(ctx, creators, models.TierFree)
	if err != nil {
		return nil, fmt.Errorf("failed to seed creators: %w", err)
	}

	logger.Log.Info("Creating fans...")
	fans := 0
	for _, tier := range []string{models.TierFree, models.TierSupporter, models.TierVIP} {
		created, err := s.seedUsers(ctx, creators, tier)
		if err != nil {
			return nil, fmt.Errorf("failed to seed %s fans: %w", tier, err)
		}
		fans += len(created)
	}

	logger.Log.Info("Creating gallery items...")
	items, err := s.seedItems(ctx, creatorUsers, itemsPerCreator)
	if err != nil {
		return nil, fmt.Errorf("failed to seed gallery items: %w", err)
	}

	if s.gorse != nil {
		logger.Log.Info("Syncing items to Gorse...", zap.Int("count", len(items)))
		if err := s.gorse.BatchSyncItems(ctx, items); err != nil {
			// Gorse is optional; the tag fallback still works
			logger.Log.Warn("Failed to sync seeded items to Gorse", zap.Error(err))
		}
	}

	return &Result{Creators: len(creatorUsers), Fans: fans, Items: len(items)}, nil
}

// SeedTest creates a small fixed dataset: one admin, one creator, one fan per
// tier, and a handful of items with one VIP-only item
func (s *Seeder) SeedTest(ctx context.Context) (*Result, error) {
	specs := []struct {
		username string
		name     string
		tier     string
		admin    bool
	}{
		{"admin", "Site Admin", models.TierFree, true},
		{"theband", "The Band", models.TierFree, false},
		{"freefan", "Free Fan", models.TierFree, false},
		{"supporter", "Supporter Fan", models.TierSupporter, false},
		{"vipfan", "VIP Fan", models.TierVIP, false},
	}

	var creator *models.User
	fans := 0
	for _, spec := range specs {
		user, err := s.users.GetUserByUsername(ctx, spec.username)
		if errors.Is(err, repository.ErrUserNotFound) {
			user = &models.User{
				Username:    spec.username,
				DisplayName: spec.name,
				Tier:        spec.tier,
				IsAdmin:     spec.admin,
			}
			err = s.users.CreateUser(ctx, user)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", spec.username, err)
		}
		if spec.username == "theband" {
			creator = user
		} else if !spec.admin {
			fans++
		}
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.GalleryItem{}).Where("creator_id = ?", creator.ID).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return &Result{Creators: 1, Fans: fans, Items: int(existing)}, nil
	}

	fixtures := []struct {
		title string
		tags  []string
		tier  string
	}{
		{"Soundcheck", []string{"tour", "soundcheck"}, ""},
		{"Encore", []string{"tour", "live", "encore"}, ""},
		{"Crowd surf", []string{"live", "crowd"}, ""},
		{"Fan mural", []string{"fanart"}, ""},
		{"Studio session", []string{"studio", "backstage"}, models.TierVIP},
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, f := range fixtures {
		item := &models.GalleryItem{
			CreatorID:    creator.ID,
			Title:        f.title,
			Description:  f.title + " from the spring tour",
			Tags:         models.StringArray(f.tags),
			TierLocked:   f.tier != "",
			RequiredTier: f.tier,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		s.setImage(item, strings.ToLower(strings.ReplaceAll(f.title, " ", "-")))
		if err := s.gallery.Create(ctx, item); err != nil {
			return nil, fmt.Errorf("failed to create %q: %w", f.title, err)
		}
	}

	return &Result{Creators: 1, Fans: fans, Items: len(fixtures)}, nil
}

// Clean removes gallery data in dependency order
func (s *Seeder) Clean(ctx context.Context) error {
	tables := []string{"recommendation_clicks", "recommendation_impressions", "gallery_items", "users"}
	for _, table := range tables {
		if err := s.db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, count int, tier string) ([]models.User, error) {
	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		for attempt := 0; ; attempt++ {
			if _, err := s.users.GetUserByUsername(ctx, username); errors.Is(err, repository.ErrUserNotFound) {
				break
			} else if err != nil {
				return nil, err
			}
			if attempt > 10 {
				username = fmt.Sprintf("%s%d", username, s.rng.Intn(100000))
				continue
			}
			username = gofakeit.Username()
		}

		user := models.User{
			Username:    username,
			DisplayName: gofakeit.Name(),
			AvatarURL:   fmt.Sprintf("%s/%s/256/256", s.cdnBase, gofakeit.UUID()),
			Tier:        tier,
		}
		if err := s.users.CreateUser(ctx, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedItems(ctx context.Context, creators []models.User, perCreator int) ([]models.GalleryItem, error) {
	items := make([]models.GalleryItem, 0, len(creators)*perCreator)
	now := time.Now().UTC()

	for _, creator := range creators {
		for i := 0; i < perCreator; i++ {
			item := models.GalleryItem{
				CreatorID:   creator.ID,
				Title:       titleCase(gofakeit.Word() + " " + gofakeit.Word()),
				Description: gofakeit.HipsterSentence(),
				Tags:        s.randomTags(),
				LikeCount:   int64(s.rng.Intn(500)),
				ViewCount:   int64(s.rng.Intn(5000)),
				CreatedAt:   gofakeit.DateRange(now.AddDate(0, -3, 0), now),
			}
			// Roughly one in five items is for paying members
			if s.rng.Intn(5) == 0 {
				item.TierLocked = true
				item.RequiredTier = models.TierSupporter
				if s.rng.Intn(2) == 0 {
					item.RequiredTier = models.TierVIP
				}
			}
			s.setImage(&item, gofakeit.UUID())

			if err := s.gallery.Create(ctx, &item); err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// randomTags picks one to three distinct tags
func (s *Seeder) randomTags() models.StringArray {
	n := s.rng.Intn(3) + 1
	picked := make(models.StringArray, 0, n)
	for _, i := range s.rng.Perm(len(seedTags))[:n] {
		picked = append(picked, seedTags[i])
	}
	return picked
}

func (s *Seeder) setImage(item *models.GalleryItem, key string) {
	item.ImageURL = fmt.Sprintf("%s/%s/1600/1067", s.cdnBase, key)
	item.ThumbnailURL = fmt.Sprintf("%s/%s/400/267", s.cdnBase, key)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
