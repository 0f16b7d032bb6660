package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/newthinker/orderdesk/internal/logger"
	"github.com/newthinker/orderdesk/internal/qrcode"
	"github.com/newthinker/orderdesk/internal/storage/archive"
	"github.com/spf13/cobra"
)

var qrAll bool

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Manage seat QR codes",
}

var qrGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render a PNG for every active seat QR code",
	RunE:  runQRGenerate,
}

var qrListCmd = &cobra.Command{
	Use:   "list",
	Short: "List seat QR codes and their scan URLs",
	RunE:  runQRList,
}

func init() {
	qrListCmd.Flags().BoolVar(&qrAll, "all", false, "include inactive codes")
	qrCmd.AddCommand(qrGenerateCmd, qrListCmd)
	rootCmd.AddCommand(qrCmd)
}

func runQRGenerate(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	storage, err := archive.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	gen := qrcode.NewGenerator(store, storage, cfg.QR.BaseURL, log)
	n, err := gen.GenerateAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("generated %d qr codes before failing: %w", n, err)
	}

	fmt.Printf("generated %d qr codes\n", n)
	return nil
}

func runQRList(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	codes, err := store.ListQRCodes(cmd.Context(), !qrAll)
	if err != nil {
		return err
	}

	gen := qrcode.NewGenerator(store, nil, cfg.QR.BaseURL, log)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOCATION\tCANTEEN\tACTIVE\tURL\tIMAGE")
	for _, loc := range codes {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
			loc.String(), loc.Canteen.Name, loc.QRCode.IsActive,
			gen.ScanURL(loc.QRCode.QRID), loc.QRCode.Image)
	}
	return w.Flush()
}
