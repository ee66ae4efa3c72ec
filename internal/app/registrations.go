package app

import (
	"context"
	"fmt"
	"strings"

	"mathemania-service/internal/domain"

	"github.com/google/uuid"
)

// RegistrationSource lists teams registered through the public form.
type RegistrationSource interface {
	ListRegistrations(ctx context.Context) ([]domain.FormRegistration, error)
}

// RegistrationWriter adds teams to the registration directory.
type RegistrationWriter interface {
	// InsertMissing stores teams whose name is not present yet and returns
	// the ones that were inserted.
	InsertMissing(ctx context.Context, regs []domain.Registration) ([]domain.Registration, error)
}

// NewUniqueCode returns a fresh code in the MATH-XXXXXXXX form.
func NewUniqueCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "MATH-" + strings.ToUpper(raw[:8])
}

// ImportRegistrations copies form registrations into the directory, giving each
// new team a unique code. Teams already present keep their code.
func ImportRegistrations(ctx context.Context, src RegistrationSource, dst RegistrationWriter, newCode func() string) ([]domain.Registration, error) {
	if newCode == nil {
		newCode = NewUniqueCode
	}
	forms, err := src.ListRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list form registrations: %w", err)
	}

	seen := make(map[string]struct{}, len(forms))
	regs := make([]domain.Registration, 0, len(forms))
	for _, f := range forms {
		name := strings.TrimSpace(f.TeamName)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		regs = append(regs, domain.Registration{
			UniqueCode: newCode(),
			TeamName:   name,
			Institute:  strings.TrimSpace(f.Institute),
		})
	}
	if len(regs) == 0 {
		return nil, nil
	}

	inserted, err := dst.InsertMissing(ctx, regs)
	if err != nil {
		return nil, fmt.Errorf("insert registrations: %w", err)
	}
	return inserted, nil
}
