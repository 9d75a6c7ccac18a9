package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/collstate"
	"ivxv.ee/collector-admin/core/svcdriver"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Start, stop, restart, or ping one fleet service",
}

func lookupService(db interface {
	All(string) (map[string]string, error)
}, id string) (svcdriver.Service, error) {
	rows, err := db.All("service/" + id + "/")
	if err != nil {
		return svcdriver.Service{}, err
	}
	rowSet := collstate.ServiceRowsFromRows(rows)
	if len(rowSet) == 0 {
		return svcdriver.Service{}, fmt.Errorf("unknown service %q", id)
	}
	row := rowSet[0]
	return svcdriver.Service{ID: row.ID, Type: row.ServiceType, Host: row.IPAddress, Address: row.IPAddress}, nil
}

func serviceAction(use, short string, run func(d *svcdriver.Driver, ctx context.Context, svc svcdriver.Service) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <service-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			db := openStore(cfg, "service-"+use)
			events := openEvents(cfg)
			driver := newDriver(cfg, db, events)

			svc, err := lookupService(db, args[0])
			if err != nil {
				return err
			}
			if err := run(driver, context.Background(), svc); err != nil {
				return err
			}
			fmt.Printf("%s: %s ok\n", svc.ID, use)
			return nil
		},
	}
}

func init() {
	serviceCmd.AddCommand(
		serviceAction("start", "Start a service (restart its unit and ping it)", func(d *svcdriver.Driver, ctx context.Context, svc svcdriver.Service) error {
			return d.Restart(ctx, svc)
		}),
		serviceAction("stop", "Stop a service", func(d *svcdriver.Driver, ctx context.Context, svc svcdriver.Service) error {
			return d.Stop(ctx, svc)
		}),
		serviceAction("restart", "Restart a service", func(d *svcdriver.Driver, ctx context.Context, svc svcdriver.Service) error {
			return d.Restart(ctx, svc)
		}),
		serviceAction("ping", "Ping a service and refresh its last-data/ping-errors bookkeeping", func(d *svcdriver.Driver, ctx context.Context, svc svcdriver.Service) error {
			return d.Ping(ctx, svc)
		}),
	)
	rootCmd.AddCommand(serviceCmd)
}
