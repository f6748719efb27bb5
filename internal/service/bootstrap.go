package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/summit-hub/booking-api/internal/model"
	"github.com/summit-hub/booking-api/internal/repository"
	"github.com/summit-hub/booking-api/internal/utils"
)

// StationSeeder creates missing stations.
type StationSeeder interface {
	EnsureNumbers(ctx context.Context, numbers []int) (int, error)
}

// AdminSeeder creates or promotes the bootstrap administrator.
type AdminSeeder interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	PromoteToAdmin(ctx context.Context, email string) error
}

// BootstrapConfig names the administrator to ensure.  Empty Email or
// Password skips the administrator.
type BootstrapConfig struct {
	Email      string
	Password   string
	Name       string
	BcryptCost int
}

// Bootstrap makes sure the default stations exist and, when configured, an
// administrator account.  It is safe to run on every start.
func Bootstrap(ctx context.Context, stations StationSeeder, users AdminSeeder, cfg BootstrapConfig, logger *log.Logger) error {
	n, err := stations.EnsureNumbers(ctx, model.DefaultStationNumbers)
	if err != nil {
		return fmt.Errorf("seed stations: %w", err)
	}
	if n > 0 {
		logger.Infof("bootstrap: created %d stations", n)
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	u, err := users.GetByEmail(ctx, cfg.Email)
	switch {
	case err == nil:
		if !u.IsAdmin() {
			if err := users.PromoteToAdmin(ctx, cfg.Email); err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
			logger.Infof("bootstrap: promoted %s to ADMIN", u.Email)
		}
		return nil
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("load admin: %w", err)
	}

	hash, err := utils.HashPassword(cfg.Password, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "Summit Administrator"
	}
	admin := &model.User{
		Name:         FirstName(name),
		FullName:     name,
		LegalID:      adminLegalID(),
		Phone:        "0000000000",
		Company:      "Summit Hub",
		Email:        cfg.Email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Infof("bootstrap: created administrator %s", admin.Email)
	return nil
}

// adminLegalID is a placeholder unique per creation; administrators are not
// traders and never show up in booking snapshots.
func adminLegalID() string {
	return fmt.Sprintf("%011d", time.Now().UnixNano()%100000000000)
}

// dateIn is the local calendar date offset days from t.
func dateIn(t time.Time, days int) model.Date {
	return model.DateOf(t).AddDays(days)
}
