package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m04kA/SMC-FacilityBooking/internal/domain"
)

var errInvalidSeed = errors.New("seed: invalid seed file")

// seedFile содержимое seed.yaml
type seedFile struct {
	Facilities []seedFacility `yaml:"facilities"`
	Users      []seedUser     `yaml:"users"`
}

type seedFacility struct {
	Name        string `yaml:"name"`
	Location    string `yaml:"location"`
	Capacity    int    `yaml:"capacity"`
	Description string `yaml:"description"`
}

type seedUser struct {
	ID       int64  `yaml:"id"`
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	IsStaff  bool   `yaml:"is_staff"`
}

type facilityStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, facility *domain.Facility) (*domain.Facility, error)
}

type userStore interface {
	Upsert(ctx context.Context, u *domain.User) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

func parseSeed(r io.Reader) (*seedFile, error) {
	var seed seedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidSeed, err)
	}

	for i, f := range seed.Facilities {
		if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Location) == "" {
			return nil, fmt.Errorf("%w: facility #%d needs name and location", errInvalidSeed, i+1)
		}
		if f.Capacity < domain.MinFacilityCapacity {
			return nil, fmt.Errorf("%w: facility %q capacity must be at least %d", errInvalidSeed, f.Name, domain.MinFacilityCapacity)
		}
	}
	for i, u := range seed.Users {
		if u.ID <= 0 || u.Username == "" {
			return nil, fmt.Errorf("%w: user #%d needs positive id and username", errInvalidSeed, i+1)
		}
	}

	return &seed, nil
}

// apply создает объекты, только если их ещё нет, и обновляет пользователей
func apply(ctx context.Context, seed *seedFile, facilities facilityStore, users userStore, log Logger) error {
	count, err := facilities.Count(ctx)
	if err != nil {
		return fmt.Errorf("count facilities: %w", err)
	}

	if count > 0 {
		log.Info("Seed: %d facilities already exist, skipping facilities", count)
	} else {
		for _, f := range seed.Facilities {
			created, err := facilities.Create(ctx, &domain.Facility{
				Name:        f.Name,
				Location:    f.Location,
				Capacity:    f.Capacity,
				Description: f.Description,
			})
			if err != nil {
				return fmt.Errorf("create facility %q: %w", f.Name, err)
			}
			log.Info("Seed: created facility id=%d name=%q", created.ID, created.Name)
		}
	}

	for _, u := range seed.Users {
		if err := users.Upsert(ctx, &domain.User{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			IsStaff:  u.IsStaff,
		}); err != nil {
			return fmt.Errorf("upsert user %q: %w", u.Username, err)
		}
		log.Info("Seed: upserted user id=%d username=%q", u.ID, u.Username)
	}

	return nil
}
