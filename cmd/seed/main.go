package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/orbitlabs/commune/backend/internal/authz"
	"github.com/orbitlabs/commune/backend/internal/database"
	"github.com/orbitlabs/commune/backend/internal/keylock"
	"github.com/orbitlabs/commune/backend/internal/logger"
	"github.com/orbitlabs/commune/backend/internal/membership"
	"github.com/orbitlabs/commune/backend/internal/models"
	"github.com/orbitlabs/commune/backend/internal/notify"
	"github.com/orbitlabs/commune/backend/internal/store"
	"github.com/orbitlabs/commune/backend/internal/workflow"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Populates a development database with fake users, collectives
// and a handful of pending workflow requests. All seeded accounts
// share the password "commune-dev".
func main() {
	userCount := flag.Int("users", 12, "number of users to create")
	collectiveCount := flag.Int("collectives", 4, "number of collectives to create")
	seed := flag.Int64("seed", 0, "deterministic faker seed (0 = random)")
	flag.Parse()

	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), ""); err != nil {
		panic(err)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	if *seed != 0 {
		if err := gofakeit.Seed(*seed); err != nil {
			logger.Log.Fatal("Bad faker seed", zap.Error(err))
		}
	}

	st := store.New(database.DB)
	locks := keylock.New()
	dispatcher := notify.New(st, logger.Log)
	memberships := membership.New(st, authz.New(st), dispatcher, locks, logger.Log)
	workflows := workflow.New(st, dispatcher, locks, logger.Log)

	hash, err := bcrypt.GenerateFromPassword([]byte("commune-dev"), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Fatal("Hashing failed", zap.Error(err))
	}
	passwordHash := string(hash)

	users := make([]*models.User, 0, *userCount)
	for i := 0; i < *userCount; i++ {
		u := &models.User{
			Email:        fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Username:     fmt.Sprintf("%s%d", gofakeit.Username(), i),
			DisplayName:  gofakeit.Name(),
			PasswordHash: &passwordHash,
		}
		if err := st.CreateUser(u); err != nil {
			logger.Log.Fatal("Failed to create user", zap.Error(err))
		}
		users = append(users, u)
	}
	logger.Log.Info("Seeded users", zap.Int("count", len(users)))

	kinds := []models.CollectiveKind{
		models.CollectiveKindGroup,
		models.CollectiveKindCommunity,
		models.CollectiveKindAlbum,
	}

	created := 0
	for i := 0; i < *collectiveCount; i++ {
		creator := users[i%len(users)]
		kind := kinds[i%len(kinds)]
		name := gofakeit.NounCollectiveThing() + " " + gofakeit.AdjectiveDescriptive()

		var capacity *int
		if kind == models.CollectiveKindGroup {
			n := gofakeit.Number(4, 16)
			capacity = &n
		}

		collective, err := memberships.CreateCollective(creator.ID, kind, name, capacity, gofakeit.Bool())
		if err != nil {
			logger.Log.Fatal("Failed to create collective", zap.Error(err))
		}
		created++

		// Fill in a few members beyond the creator
		for j := 1; j <= 3 && j < len(users); j++ {
			member := users[(i+j)%len(users)]
			if member.ID == creator.ID {
				continue
			}
			if _, err := memberships.Join(collective.ID, member.ID); err != nil {
				logger.Log.Warn("Join skipped",
					zap.String("collective", collective.Name),
					zap.Error(err))
			}
		}
	}
	logger.Log.Info("Seeded collectives", zap.Int("count", created))

	// A few pending location-share requests between the first users
	pending := 0
	for i := 0; i+1 < len(users) && pending < 5; i += 2 {
		requester := users[i]
		owner := users[i+1]
		if _, err := workflows.Create(models.WorkflowDomainLocation, requester.ID, owner.ID, owner.ID); err != nil {
			logger.Log.Warn("Request skipped", zap.Error(err))
			continue
		}
		pending++
	}
	logger.Log.Info("Seeded pending requests", zap.Int("count", pending))

	logger.Log.Info("Seed complete, all accounts use password \"commune-dev\"")
}
