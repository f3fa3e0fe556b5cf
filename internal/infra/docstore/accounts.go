package docstore

import (
	"context"

	"github.com/lanebid/drayage-portal/internal/domain"
)

func (d *Document) upsertAccount(a domain.Account) {
	for i := range d.Accounts {
		if d.Accounts[i].ID == a.ID {
			d.Accounts[i] = a
			return
		}
	}
	d.Accounts = append(d.Accounts, a)
}

// FindAccountByEmail matches emails case-insensitively.
func (s *Store) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	want := domain.NormalizeEmail(email)
	var out *domain.Account
	err := s.view(ctx, "FindAccountByEmail", func(doc *Document) error {
		for _, a := range doc.Accounts {
			if domain.NormalizeEmail(a.Email) == want {
				acct := a
				out = &acct
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "account", ID: want}
	})
	return out, err
}

func (s *Store) UpsertAccount(ctx context.Context, account domain.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, "UpsertAccount", func(doc *Document) error {
		doc.upsertAccount(account)
		return nil
	})
}

// AddPendingRegistration replaces any outstanding registration for the
// same email.
func (s *Store) AddPendingRegistration(ctx context.Context, reg domain.PendingRegistration) error {
	reg.Email = domain.NormalizeEmail(reg.Email)
	return s.mutate(ctx, "AddPendingRegistration", func(doc *Document) error {
		kept := doc.PendingRegistrations[:0]
		for _, p := range doc.PendingRegistrations {
			if domain.NormalizeEmail(p.Email) != reg.Email {
				kept = append(kept, p)
			}
		}
		doc.PendingRegistrations = append(kept, reg)
		return nil
	})
}

// ConsumePendingRegistration removes and returns the registration for email.
func (s *Store) ConsumePendingRegistration(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	want := domain.NormalizeEmail(email)
	var out *domain.PendingRegistration
	err := s.mutate(ctx, "ConsumePendingRegistration", func(doc *Document) error {
		for i, p := range doc.PendingRegistrations {
			if domain.NormalizeEmail(p.Email) == want {
				reg := p
				out = &reg
				doc.PendingRegistrations = append(doc.PendingRegistrations[:i], doc.PendingRegistrations[i+1:]...)
				return nil
			}
		}
		return &domain.ErrNotFound{Resource: "pending registration", ID: want}
	})
	return out, err
}
