package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/agent"
	"ivxv.ee/collector-admin/core/collstate"
	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/svcdriver"
)

var (
	configApplyType      string
	configApplyChangeset int
)

// targetServiceType is the service type a given list apply pertains to:
// choices lists go to the choices-counting service, districts/voters lists
// to the service that validates voter eligibility against them.
func targetServiceType(listType commandfile.Type) string {
	if listType == commandfile.TypeChoices {
		return "choices"
	}
	return "voting"
}

var configApplyCmd = &cobra.Command{
	Use:   "config-apply",
	Short: "Push a registered command out to every relevant fleet service",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := commandfile.Type(configApplyType)
		if !commandfile.Valid(t) {
			return fmt.Errorf("unknown command type %q", configApplyType)
		}
		cfg := loadConfig()
		db := openStore(cfg, "config-apply")
		events := openEvents(cfg)
		driver := newDriver(cfg, db, events)
		ctx := context.Background()

		progressPath, err := commandfile.ProgressPathFor(cfg.Paths.Active, t, configApplyChangeset)
		if err != nil {
			return err
		}
		if progressPath == "" {
			fmt.Println("nothing pending to apply")
			return nil
		}
		progress, err := commandfile.ReadProgress(progressPath)
		if err != nil {
			return err
		}
		if progress.Completed {
			fmt.Println("already applied")
			return nil
		}
		progress.Attempts++
		if err := commandfile.WriteProgress(progressPath, progress); err != nil {
			return err
		}
		logStep := func(msg string) {
			_ = commandfile.AppendLogAndSave(progressPath, msg, func() string {
				return time.Now().UTC().Format(time.RFC3339)
			})
		}

		rows, err := db.All("service/")
		if err != nil {
			return err
		}
		services := agent.OrderServices(collstate.ServiceRowsFromRows(rows))

		version := progress.ConfigVersion
		trustBdoc := commandfile.ActivePath(cfg.Paths.Active, commandfile.TypeTrust, 0)
		technicalBdoc := commandfile.ActivePath(cfg.Paths.Active, commandfile.TypeTechnical, 0)
		electionBdoc := commandfile.ActivePath(cfg.Paths.Active, commandfile.TypeElection, 0)
		listPath := commandfile.ActivePath(cfg.Paths.Active, t, configApplyChangeset)

		var failures []string
		switch t {
		case commandfile.TypeTechnical:
			for _, svcRow := range services {
				svc := svcdriver.Service{ID: svcRow.ID, Type: svcRow.ServiceType, Host: svcRow.IPAddress, Address: svcRow.IPAddress}
				host, _, err := db.Get(dbkey.Host(svc.Host, "state"))
				if err == nil && host != "REGISTERED" {
					if err := driver.InstallHost(ctx, svc.Host); err != nil {
						failures = append(failures, fmt.Sprintf("%s: install-host: %v", svc.ID, err))
						logStep(fmt.Sprintf("%s: install-host failed: %v", svc.ID, err))
						continue
					}
					_ = db.Set(dbkey.Host(svc.Host, "state"), "REGISTERED")
				}
				if err := driver.ApplyTechnical(ctx, svc, version, trustBdoc, technicalBdoc); err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", svc.ID, err))
					logStep(fmt.Sprintf("%s: apply-technical failed: %v", svc.ID, err))
					continue
				}
				logStep(fmt.Sprintf("%s: technical config applied", svc.ID))
			}

		case commandfile.TypeElection:
			for _, svcRow := range services {
				svc := svcdriver.Service{ID: svcRow.ID, Type: svcRow.ServiceType, Host: svcRow.IPAddress, Address: svcRow.IPAddress}
				if err := driver.ApplyElection(ctx, svc, version, electionBdoc); err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", svc.ID, err))
					logStep(fmt.Sprintf("%s: apply-election failed: %v", svc.ID, err))
					continue
				}
				logStep(fmt.Sprintf("%s: election config applied", svc.ID))
			}

		case commandfile.TypeChoices, commandfile.TypeDistricts, commandfile.TypeVoters:
			want := targetServiceType(t)
			for _, svcRow := range services {
				if svcRow.ServiceType != want {
					continue
				}
				svc := svcdriver.Service{ID: svcRow.ID, Type: svcRow.ServiceType, Host: svcRow.IPAddress, Address: svcRow.IPAddress}
				if err := driver.ApplyList(ctx, svc, string(t), configApplyChangeset, listPath); err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", svc.ID, err))
					logStep(fmt.Sprintf("%s: apply-list failed: %v", svc.ID, err))
					continue
				}
				logStep(fmt.Sprintf("%s: %s list applied", svc.ID, t))
			}
			if t == commandfile.TypeVoters {
				stateKey := dbkey.VoterList(configApplyChangeset, "state")
				if len(failures) == 0 {
					_ = db.Set(stateKey, "APPLIED")
				} else {
					_ = db.Set(stateKey, "INVALID")
				}
			}

		default:
			return fmt.Errorf("config-apply does not apply command type %q", t)
		}

		progress, err = commandfile.ReadProgress(progressPath)
		if err != nil {
			return err
		}
		progress.Completed = len(failures) == 0
		if err := commandfile.WriteProgress(progressPath, progress); err != nil {
			return err
		}

		if len(failures) > 0 {
			return fmt.Errorf("config-apply %s: %d service(s) failed: %v", t, len(failures), failures)
		}
		fmt.Printf("applied %s version %q to %d service(s)\n", t, version, len(services))
		return nil
	},
}

func init() {
	configApplyCmd.Flags().StringVar(&configApplyType, "type", "", "command type to apply (technical|election|choices|districts|voters)")
	configApplyCmd.Flags().IntVar(&configApplyChangeset, "changeset", 0, "voter-list changeset number (type=voters only)")
	configApplyCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(configApplyCmd)
}
