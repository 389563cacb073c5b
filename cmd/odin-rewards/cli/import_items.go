package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vikingheim/odin-rewards/internal/config"
	"github.com/vikingheim/odin-rewards/internal/db"
	dbmodel "github.com/vikingheim/odin-rewards/internal/db/model"
)

// ImportItemsCmd imports collection items from a file with one line per item
// in "tokenID<TAB>name" format.
// Usage: ./odin-rewards import-items items.tsv --config config.yml
func ImportItemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-items [file]",
		Short: "Import collection items from a tab-separated file",
		Args:  cobra.ExactArgs(1),
		Run:   importItems,
	}

	return cmd
}

func importItems(cmd *cobra.Command, args []string) {
	err := importItemsE(cmd, args)
	if err != nil {
		log.Err(err).Msg("Failed to import items")
		os.Exit(1)
	}

	os.Exit(0)
}

func importItemsE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	filename := args[0]
	fd, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer fd.Close()

	var imported, skipped int
	sc := bufio.NewScanner(fd)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		tokenID, name, found := strings.Cut(line, "\t")
		if !found {
			fmt.Printf("Skipping malformed line: %q\n", line)
			skipped++
			continue
		}

		item := &dbmodel.Item{
			ID:        uuid.New().String(),
			TokenID:   strings.TrimSpace(tokenID),
			Name:      strings.TrimSpace(name),
			CreatedAt: time.Now(),
		}
		if err := dbClient.SaveItem(ctx, item); err != nil {
			if db.IsDuplicateKeyError(err) {
				fmt.Printf("Item with token %q already exists, skipping\n", item.TokenID)
				skipped++
				continue
			}
			return err
		}

		imported++
	}
	if err := sc.Err(); err != nil {
		return err
	}

	fmt.Printf("Imported %d items, skipped %d\n", imported, skipped)
	return nil
}
