package main

import (
	"bufio"
	"flag"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"gitlab.com/yuriy.hrytsenko/contacts-backend/internal/config"
)

// Usage example on the command line:
// > DBHOST=localhost DBUSER=app DBPWD=secret DBNAME=contacts go run main.go -file=../../scripts/database.sql
func main() {
	cfg := config.Load()
	db, err := config.OpenDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open database")
	}
	defer db.Close()

	filePtr := flag.String("file", "database.sql", "the sql file to execute")
	flag.Parse()

	readFile, err := os.Open(*filePtr) // nosemgrep
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePtr).Msg("could not open sql file")
	}
	defer readFile.Close()

	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	for fileScanner.Scan() {
		line := fileScanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			db.MustExec(builder.String())
			builder = strings.Builder{}
		}
	}
}
