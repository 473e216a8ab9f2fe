package seed

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/seatwise/internal/auth/domain"
	"github.com/smallbiznis/seatwise/internal/auth/password"
	departmentdomain "github.com/smallbiznis/seatwise/internal/department/domain"
	licensedomain "github.com/smallbiznis/seatwise/internal/license/domain"
	organizationdomain "github.com/smallbiznis/seatwise/internal/organization/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	demoOrgName       = "Demo Company"
	demoOrgSlug       = "demo-company"
	demoAdminEmail    = "admin@seatwise.local"
	demoAdminPassword = "admin"
	demoAdminDisplay  = "Seatwise Admin"
)

type demoLicense struct {
	Vendor     string
	Name       string
	Category   string
	Department string
	Seats      int
	Used       int
	Cost       float64
	Cycle      string
	RenewsIn   int
}

var demoLicenses = []demoLicense{
	{"Atlassian", "Jira Software", "Project Management", "Engineering", 60, 52, 8.15, licensedomain.BillingMonthly, 45},
	{"GitHub", "GitHub Enterprise", "Development", "Engineering", 50, 48, 21, licensedomain.BillingMonthly, 120},
	{"Adobe", "Creative Cloud", "Design", "Marketing", 20, 9, 54.99, licensedomain.BillingAnnual, 20},
	{"HubSpot", "Marketing Hub", "Marketing", "Marketing", 15, 12, 45, licensedomain.BillingMonthly, 75},
	{"Salesforce", "Sales Cloud", "CRM", "Sales", 40, 22, 75, licensedomain.BillingAnnual, 12},
	{"Zoom", "Zoom Business", "Communication", "Sales", 30, 27, 13.32, licensedomain.BillingMonthly, 200},
	{"Workday", "Workday HCM", "HR", "HR", 10, 10, 99, licensedomain.BillingAnnual, 300},
	{"Intuit", "QuickBooks Online", "Finance", "Finance", 8, 3, 30, licensedomain.BillingMonthly, 28},
	{"Slack", "Slack Pro", "Communication", "", 120, 96, 7.25, licensedomain.BillingMonthly, 60},
}

// EnsureDemoOrg seeds a demo organization, admin account and sample licenses once.
func EnsureDemoOrg(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing organizationdomain.Organization
		err := tx.Where("slug = ?", demoOrgSlug).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		user, err := ensureAdminTx(ctx, tx, node, now)
		if err != nil {
			return err
		}

		org := organizationdomain.Organization{
			ID:        node.Generate(),
			Name:      demoOrgName,
			Slug:      demoOrgSlug,
			Settings:  datatypes.NewJSONType(organizationdomain.DefaultSettings()),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&org).Error; err != nil {
			return err
		}

		member := organizationdomain.OrganizationMember{
			ID:        node.Generate(),
			OrgID:     org.ID,
			UserID:    user.ID,
			Role:      organizationdomain.RoleAdmin,
			Email:     user.Email,
			FullName:  user.DisplayName,
			CreatedAt: now,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		departments := make(map[string]snowflake.ID, len(departmentdomain.DefaultBudgets))
		for i, item := range departmentdomain.DefaultBudgets {
			created := now.Add(time.Duration(i) * time.Millisecond)
			department := departmentdomain.Department{
				ID:        node.Generate(),
				OrgID:     org.ID,
				Name:      item.Name,
				Budget:    item.Budget,
				CreatedAt: created,
				UpdatedAt: created,
			}
			if err := tx.Create(&department).Error; err != nil {
				return err
			}
			departments[item.Name] = department.ID
		}

		for _, item := range demoLicenses {
			license := licensedomain.License{
				ID:           node.Generate(),
				OrgID:        org.ID,
				Vendor:       item.Vendor,
				Name:         item.Name,
				Category:     item.Category,
				LicenseType:  licensedomain.TypePerUser,
				TotalSeats:   item.Seats,
				UsedSeats:    item.Used,
				CostPerSeat:  item.Cost,
				TotalCost:    licensedomain.TotalCost(item.Seats, decimal.NewFromFloat(item.Cost)).InexactFloat64(),
				BillingCycle: item.Cycle,
				PurchaseDate: now.AddDate(-1, 0, 0),
				RenewalDate:  now.AddDate(0, 0, item.RenewsIn),
				Status:       licensedomain.StatusActive,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if id, ok := departments[item.Department]; ok {
				license.DepartmentID = &id
			}
			if err := tx.Create(&license).Error; err != nil {
				return err
			}

			for i := 0; i < item.Used; i++ {
				if err := tx.Create(&licensedomain.UsageRecord{
					ID:             node.Generate(),
					OrgID:          org.ID,
					LicenseID:      license.ID,
					UserEmail:      seatEmail(item.Vendor, i),
					LastActiveDate: now.AddDate(0, 0, -(i % 20)),
					UsageHours:     float64(4 + i%30),
					IsActive:       true,
					CreatedAt:      now,
				}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func ensureAdminTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, now time.Time) (authdomain.User, error) {
	var user authdomain.User
	err := tx.WithContext(ctx).Where("email = ?", demoAdminEmail).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return user, err
	}

	hashed, err := password.Hash(demoAdminPassword)
	if err != nil {
		return user, err
	}
	user = authdomain.User{
		ID:           node.Generate(),
		Email:        demoAdminEmail,
		DisplayName:  demoAdminDisplay,
		PasswordHash: &hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return user, err
	}
	return user, nil
}

func seatEmail(vendor string, i int) string {
	return strings.ToLower(strings.ReplaceAll(vendor, " ", "")) + "-user" + strconv.Itoa(i) + "@seatwise.local"
}
