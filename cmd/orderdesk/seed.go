package main

import (
	"fmt"

	"github.com/newthinker/orderdesk/internal/logger"
	"github.com/newthinker/orderdesk/internal/seed"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Create canteens, labs, seats and menus from a YAML file",
	Long: `seed applies a fixture file to the configured database. Records are
matched by name, so running it again only adds what is new. Every seat
gets an active QR code.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "memory" {
		return fmt.Errorf("seeding the memory driver has no lasting effect; use serve --seed")
	}

	fixture, err := seed.Load(args[0])
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	res, err := seed.Apply(cmd.Context(), store, fixture, log)
	if err != nil {
		return err
	}

	fmt.Printf("canteens: %d  labs: %d  seats: %d  qr codes: %d  menu items: %d  options: %d\n",
		res.Canteens, res.Labs, res.Seats, res.QRCodes, res.MenuItems, res.Options)
	return nil
}
