package services

import (
	"context"
	"fmt"

	"actrec-directory/internal/domain/models"
	"actrec-directory/internal/infrastructure/config"
	"actrec-directory/internal/infrastructure/store"

	"go.uber.org/zap"
)

// EnsureAdminExists creates or promotes the configured bootstrap administrator
// when no admin account exists. The returned credential is non-nil only when
// a password was generated, and is shown once.
func EnsureAdminExists(ctx context.Context, s store.Store, credentials InterfaceCredentialService, cfg *config.Config, logger *zap.Logger) (*Credential, error) {
	admins, err := s.CountAccountsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if admins > 0 {
		return nil, nil
	}
	if cfg.BootstrapAdminEmail == "" {
		logger.Warn("no administrator account exists and BOOTSTRAP_ADMIN_EMAIL is not set")
		return nil, nil
	}

	password := cfg.BootstrapAdminPassword
	generated := password == ""
	var hash string
	if generated {
		secret, err := credentials.Generate()
		if err != nil {
			return nil, err
		}
		password, hash = secret.Plaintext, secret.Hash
	} else if hash, err = credentials.Hash(password); err != nil {
		return nil, err
	}

	var contact *models.Contact
	err = s.Transaction(ctx, func(tx store.Store) error {
		existing, err := tx.FindContactByEmail(ctx, cfg.BootstrapAdminEmail)
		switch {
		case err == nil:
			contact = existing
		case store.IsNotFound(err):
			contact = &models.Contact{
				Name:        cfg.BootstrapAdminName,
				Email:       cfg.BootstrapAdminEmail,
				Extension:   cfg.BootstrapAdminExtension,
				Institution: cfg.DefaultInstitution,
			}
			if err := tx.CreateContact(ctx, contact); err != nil {
				return fmt.Errorf("create bootstrap contact: %w", err)
			}
		default:
			return err
		}

		_, err = tx.UpdateAccount(ctx, contact.ID, map[string]interface{}{
			"role":          models.RoleAdmin,
			"password_hash": hash,
		})
		if store.IsNotFound(err) {
			err = tx.CreateAccount(ctx, &models.Account{
				BaseModel:    models.BaseModel{ID: contact.ID},
				Email:        contact.Email,
				Role:         models.RoleAdmin,
				PasswordHash: hash,
			})
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("bootstrap administrator ready",
		zap.String("contact_id", contact.ID), zap.String("email", contact.Email))
	if !generated {
		return nil, nil
	}
	return &Credential{
		Email:       contact.Email,
		Password:    password,
		ContactName: contact.Name,
		ContactID:   contact.ID,
	}, nil
}
