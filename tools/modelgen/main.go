package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// modelgen rewrites the gorm models from the tables of a migrated database.
func main() {
	var dsn, out, tables string
	flag.StringVar(&dsn, "dsn", os.Getenv("SARSIM_DB_DSN"), "postgres dsn of a migrated database")
	flag.StringVar(&out, "out", "internal/adapter/repo/gorm/model", "model output dir")
	flag.StringVar(&tables, "tables", "episodes,episode_events", "comma separated tables to generate")
	flag.Parse()

	if dsn == "" {
		log.Fatal("modelgen: -dsn or SARSIM_DB_DSN is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("modelgen: open postgres: %v", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           out,
		ModelPkgPath:      "model",
		Mode:              gen.WithoutContext,
		FieldWithIndexTag: true,
	})
	g.UseDB(db)
	n := 0
	for _, table := range strings.Split(tables, ",") {
		if table = strings.TrimSpace(table); table == "" {
			continue
		}
		g.GenerateModel(table)
		n++
	}
	if n == 0 {
		log.Fatal("modelgen: no tables selected")
	}
	g.Execute()
	log.Printf("modelgen: %d models written to %s", n, out)
}
