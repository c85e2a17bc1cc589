package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/cache"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/database/postgres"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/importing"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/utils"
)

func main() {
	file := flag.String("file", "", "CSV file with the sales to import")
	actor := flag.String("actor", "", "actor recorded on inventory status changes")
	asJSON := flag.Bool("json", false, "print the full report as JSON")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -file sales.csv [-actor name] [-json]")
		os.Exit(2)
	}

	os.Exit(run(*file, *actor, *asJSON))
}

func run(file, actor string, asJSON bool) int {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.WithError(err).Error("Error loading configuration")
		return 1
	}
	log.SetLevel(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input, err := os.Open(file)
	if err != nil {
		logrus.WithError(err).WithField("file", file).Error("Error opening sales file")
		return 1
	}
	defer input.Close()

	conn, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to PostgreSQL")
		return 1
	}
	defer conn.Close()

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, importing without cache")
		redisClient = nil
	}
	defer redisClient.Close()

	clientRepo := repository.NewClientRepository(conn)
	transactions := repository.NewTransactionManager(conn)

	policy, err := importing.NewTierPolicy(cfg.VIPPolicy)
	if err != nil {
		logrus.WithError(err).Error("Invalid VIP policy configuration")
		return 1
	}

	aggregator := importing.NewClientStatsAggregator(
		transactions,
		policy,
		cache.NewClientCache(redisClient, clientRepo),
	)
	importer := importing.NewService(
		transactions,
		cache.NewReferenceCache(redisClient, repository.NewReferenceRepository(conn)),
		aggregator,
		cfg.Import,
	)

	report, err := importer.ImportCSV(ctx, input, importing.Options{Actor: actor})
	if err != nil {
		logrus.WithError(err).Error("Import failed")
		return 1
	}

	if asJSON {
		err = writeJSON(os.Stdout, report)
	} else {
		err = writeSummary(os.Stdout, report)
	}
	if err != nil {
		logrus.WithError(err).Error("Error writing report")
		return 1
	}

	if report.NeedsAttention() {
		return 1
	}
	return 0
}

func writeJSON(w io.Writer, report *domain.ImportReport) error {
	out, err := utils.PrettyJSON(report)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// writeSummary prints one line per record followed by the outcome totals.
func writeSummary(w io.Writer, report *domain.ImportReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "ROW\tSERIAL\tOUTCOME\tCLIENT\tDETAIL\n")
	for _, entry := range report.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			entry.Record.Row,
			entry.Record.SerialNumber,
			entry.Outcome,
			clientColumn(entry),
			detailColumn(entry),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nBatch %s by %s: %d records in %s\n",
		report.BatchID,
		report.Actor,
		report.Summary.Total,
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)

	outcomes := make([]string, 0, len(report.Summary.Outcomes))
	for outcome := range report.Summary.Outcomes {
		outcomes = append(outcomes, string(outcome))
	}
	sort.Strings(outcomes)

	for _, outcome := range outcomes {
		if _, err := fmt.Fprintf(w, "  %-26s %d\n", outcome, report.Count(domain.ImportOutcome(outcome))); err != nil {
			return err
		}
	}

	return nil
}

func clientColumn(entry domain.ImportEntry) string {
	if entry.Client == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", entry.Client.ClientID, entry.Client.Kind)
}

func detailColumn(entry domain.ImportEntry) string {
	switch {
	case entry.Reason != "":
		return entry.Reason
	case entry.ExistingSaleID != "":
		return "existing sale " + entry.ExistingSaleID
	case entry.SaleID != "":
		return "sale " + entry.SaleID
	default:
		return ""
	}
}
