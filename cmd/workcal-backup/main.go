// Command workcal-backup exports or restores appointment backups from the
// command line. Stop the server before importing into a shared database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"workcal/internal/backup"
	"workcal/internal/cli"
	"workcal/internal/log"
)

const usage = `usage:
  workcal-backup export [-o file]   write a backup (default: BACKUP_DIR, "-" for stdout)
  workcal-backup import -i file     replace all appointments with a backup
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, logger := cli.LoadAndValidateConfig(log.ComponentBackup)
	ctx := context.Background()

	res := cli.InitBackend(ctx, logger, cfg)
	defer res.Cleanup()
	svc := backup.NewService(res.Backend, res.Backend)

	var err error
	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("o", "", "output file, - for stdout")
		fs.Parse(os.Args[2:])
		err = export(ctx, svc, *out, cfg.BackupDir, logger)
	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		in := fs.String("i", "", "backup file to import")
		fs.Parse(os.Args[2:])
		if *in == "" {
			fmt.Fprint(os.Stderr, usage)
			res.Cleanup()
			os.Exit(2)
		}
		var n int
		n, err = svc.ImportFile(ctx, *in)
		if err == nil {
			logger.Info("Backup imported", log.FieldCount, n, "file", *in)
		}
	default:
		fmt.Fprint(os.Stderr, usage)
		res.Cleanup()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("Backup command failed", log.FieldError, err, log.FieldOperation, os.Args[1])
		res.Cleanup()
		os.Exit(1)
	}
}

func export(ctx context.Context, svc *backup.Service, out, dir string, logger *log.Logger) error {
	switch out {
	case "":
		path, err := svc.ExportFile(ctx, dir)
		if err != nil {
			return err
		}
		logger.Info("Backup written", "file", path)
		return nil
	case "-":
		_, err := svc.Export(ctx, os.Stdout)
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	n, err := svc.Export(ctx, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	logger.Info("Backup written", "file", out, log.FieldCount, n)
	return nil
}
