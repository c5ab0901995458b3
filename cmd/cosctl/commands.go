package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Emmanuelamanga/cos-platform/internal/domain/enums"
	"github.com/Emmanuelamanga/cos-platform/internal/domain/model"
	pgrepo "github.com/Emmanuelamanga/cos-platform/internal/repo/postgres"
	"github.com/Emmanuelamanga/cos-platform/internal/security"
)

func newHashPasswordCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash suitable for the accounts table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			hash, err := security.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Plain-text password to hash")
	return cmd
}

func newGrantRoleCmd() *cobra.Command {
	var email, roleTag string
	cmd := &cobra.Command{
		Use:   "grant-role",
		Short: "Set the role of an existing account",
		Long: `Set the role of an existing account by email.

Used to bootstrap the first administrator, since role changes through the
API require an administrator session.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, err := enums.ParseRole(roleTag)
			if err != nil {
				return err
			}
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}

			return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				return grantRole(ctx, cmd, pgrepo.NewAccountRepo(pool), email, role)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&roleTag, "role", string(enums.RoleAdministrator), "citizen, moderator or administrator")
	return cmd
}

type roleGranter interface {
	GetByEmail(ctx context.Context, email string) (model.Account, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) (model.Account, error)
}

func grantRole(ctx context.Context, cmd *cobra.Command, accounts roleGranter, email string, role enums.Role) error {
	account, err := accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgrepo.ErrAccountNotFound) {
			return fmt.Errorf("no account registered for %s", email)
		}
		return err
	}
	if account.Role == role {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already has role %s\n", account.Email, role)
		return nil
	}

	updated, err := accounts.UpdateRole(ctx, account.ID, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", updated.Email, account.Role, updated.Role)
	return nil
}

type referenceFile struct {
	Counties  []string `yaml:"counties"`
	CaseTypes []struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"case_types"`
}

func newSeedReferenceCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-reference",
		Short: "Insert the counties and case types used by filters and the submission form",
		RunE: func(cmd *cobra.Command, _ []string) error {
			counties, caseTypes, err := loadReference(file)
			if err != nil {
				return err
			}

			return withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				added, err := pgrepo.NewReferenceRepo(pool).Seed(ctx, counties, caseTypes)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d reference rows (%d counties, %d case types offered)\n", added, len(counties), len(caseTypes))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with counties and case_types (built-in defaults when empty)")
	return cmd
}

func loadReference(path string) ([]string, []model.CaseType, error) {
	if path == "" {
		return defaultCounties, defaultCaseTypes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read reference file: %w", err)
	}
	var ref referenceFile
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, nil, fmt.Errorf("unmarshal reference yaml: %w", err)
	}

	caseTypes := make([]model.CaseType, 0, len(ref.CaseTypes))
	for _, ct := range ref.CaseTypes {
		if strings.TrimSpace(ct.Name) == "" {
			continue
		}
		caseTypes = append(caseTypes, model.CaseType{Name: ct.Name, Description: ct.Description})
	}
	counties := make([]string, 0, len(ref.Counties))
	for _, c := range ref.Counties {
		if strings.TrimSpace(c) != "" {
			counties = append(counties, c)
		}
	}
	return counties, caseTypes, nil
}

var defaultCounties = []string{
	"Baringo", "Bomet", "Bungoma", "Busia", "Elgeyo-Marakwet", "Embu", "Garissa",
	"Homa Bay", "Isiolo", "Kajiado", "Kakamega", "Kericho", "Kiambu", "Kilifi",
	"Kirinyaga", "Kisii", "Kisumu", "Kitui", "Kwale", "Laikipia", "Lamu",
	"Machakos", "Makueni", "Mandera", "Marsabit", "Meru", "Migori", "Mombasa",
	"Murang'a", "Nairobi", "Nakuru", "Nandi", "Narok", "Nyamira", "Nyandarua",
	"Nyeri", "Samburu", "Siaya", "Taita-Taveta", "Tana River", "Tharaka-Nithi",
	"Trans Nzoia", "Turkana", "Uasin Gishu", "Vihiga", "Wajir", "West Pokot",
}

var defaultCaseTypes = []model.CaseType{
	{Name: "Corruption", Description: "Bribery, embezzlement or abuse of public office"},
	{Name: "Public Service Delivery", Description: "Failures in health, water, education or other public services"},
	{Name: "Infrastructure", Description: "Stalled, unsafe or substandard public works"},
	{Name: "Environment", Description: "Pollution, illegal logging or land degradation"},
	{Name: "Human Rights", Description: "Abuse, harassment or unlawful detention"},
	{Name: "Land", Description: "Land grabbing and boundary disputes"},
	{Name: "Election Irregularity", Description: "Voter intimidation, bribery or tampering"},
}
