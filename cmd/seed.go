package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"field-service-server/config"
	"field-service-server/database"
	"field-service-server/models"
	"field-service-server/repository"
	"field-service-server/services"
)

func newSeedCmd() *cobra.Command {
	var tenantID uint

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo tenant with hours, zones and crews",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.Open(cfg.Database, logger.Warn)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			store := repository.NewStore(db)
			return seedDemoTenant(cmd.Context(), services.NewSetupService(store, store, nil), tenantID)
		},
	}

	cmd.Flags().UintVar(&tenantID, "tenant", 1, "tenant id to seed")
	return cmd
}

type demoCrew struct {
	name  string
	zone  string
	skill []string
}

var (
	demoZones = []models.ZoneCreate{
		{Name: "Centre", PostalCodes: []string{"75001", "75002", "75003", "75004"}, Color: "#eb5436"},
		{Name: "Nord", PostalCodes: []string{"75017", "75018", "75019"}, Color: "#3b82f6"},
		{Name: "Sud", PostalCodes: []string{"75013", "75014", "75015"}, Color: "#10b981"},
	}
	demoCrews = []demoCrew{
		{name: "Plomberie A", zone: "Centre", skill: []string{"plumbing"}},
		{name: "Électricité B", zone: "Nord", skill: []string{"electrical"}},
		{name: "Polyvalent C", zone: "Sud", skill: []string{"plumbing", "hvac"}},
	}
	demoTravel = []struct {
		from, to string
		minutes  int
	}{
		{"Centre", "Nord", 20},
		{"Centre", "Sud", 25},
		{"Nord", "Sud", 40},
	}
)

// seedDemoTenant configures a Monday to Saturday tenant with three zones and
// three crews. Zones and crews that already exist by name are left alone.
func seedDemoTenant(ctx context.Context, setup *services.SetupService, tenantID uint) error {
	hours := []models.BusinessHoursInput{{Weekday: 0, IsClosed: true}}
	for wd := 1; wd <= 5; wd++ {
		hours = append(hours, models.BusinessHoursInput{Weekday: wd, OpenTime: "08:00", CloseTime: "18:00"})
	}
	hours = append(hours, models.BusinessHoursInput{Weekday: 6, OpenTime: "09:00", CloseTime: "13:00"})

	if _, err := setup.SaveSchedulingConfig(ctx, tenantID, models.SchedulingConfigUpdate{
		Timezone:               "Europe/Paris",
		BufferMinutes:          15,
		DefaultDurationMinutes: 60,
		SlotGranularity:        "coarse",
		CrewsPerDay:            len(demoCrews),
		MaxJobsPerCrew:         5,
		BookingWindowDays:      30,
		MinNoticeHours:         24,
		BusinessHours:          hours,
	}); err != nil {
		return fmt.Errorf("save scheduling config: %w", err)
	}
	log.Printf("✅ Scheduling config saved for tenant %d", tenantID)

	existing, err := setup.ListZones(ctx, tenantID)
	if err != nil {
		return err
	}
	zoneIDs := make(map[string]uint, len(existing))
	for _, z := range existing {
		zoneIDs[z.Name] = z.ID
	}
	for _, z := range demoZones {
		if _, ok := zoneIDs[z.Name]; ok {
			log.Printf("⏭️  Zone already exists: %s", z.Name)
			continue
		}
		zone, err := setup.CreateZone(ctx, tenantID, z)
		if err != nil {
			return fmt.Errorf("create zone %s: %w", z.Name, err)
		}
		zoneIDs[zone.Name] = zone.ID
		log.Printf("✅ Created zone: %s", zone.Name)
	}

	for _, edge := range demoTravel {
		for _, pair := range [][2]string{{edge.from, edge.to}, {edge.to, edge.from}} {
			if _, err := setup.SetTravelTime(ctx, tenantID, models.TravelTimeInput{
				FromZoneID: zoneIDs[pair[0]],
				ToZoneID:   zoneIDs[pair[1]],
				Minutes:    edge.minutes,
			}); err != nil {
				return fmt.Errorf("travel %s -> %s: %w", pair[0], pair[1], err)
			}
		}
	}

	crews, err := setup.ListCrews(ctx, tenantID)
	if err != nil {
		return err
	}
	haveCrew := make(map[string]bool, len(crews))
	for _, c := range crews {
		haveCrew[c.Name] = true
	}
	for _, c := range demoCrews {
		if haveCrew[c.name] {
			log.Printf("⏭️  Crew already exists: %s", c.name)
			continue
		}
		zoneID := zoneIDs[c.zone]
		if _, err := setup.CreateCrew(ctx, tenantID, models.CrewCreate{
			Name:            c.name,
			ZoneID:          &zoneID,
			Specializations: c.skill,
		}); err != nil {
			return fmt.Errorf("create crew %s: %w", c.name, err)
		}
		log.Printf("✅ Created crew: %s", c.name)
	}

	log.Printf("🌱 Demo tenant %d is ready", tenantID)
	return nil
}
