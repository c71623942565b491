// Command directory-setup manages the Elasticsearch professional
// directory index: explicit mapping creation and bulk seeding from a
// JSON file. Intended for local development and fresh environments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"tender-engine/internal/common/config"
	"tender-engine/internal/common/database"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "name":            { "type": "text" },
      "category":        { "type": "keyword" },
      "status":          { "type": "keyword" },
      "gps_coordinates": { "type": "keyword" },
      "latitude":        { "type": "double" },
      "longitude":       { "type": "double" },
      "city":            { "type": "keyword" },
      "district":        { "type": "keyword" },
      "phone":           { "type": "keyword" },
      "email":           { "type": "keyword" },
      "device_arn":      { "type": "keyword" }
    }
  }
}`

func main() {
	setupCmd := flag.NewFlagSet("setup", flag.ExitOnError)
	recreate := setupCmd.Bool("recreate", false, "Drop the index first if it exists")

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedFile := seedCmd.String("file", "", "JSON file with an array of professional documents (each must carry an \"id\")")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		fmt.Printf("Error connecting to Elasticsearch: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	index := cfg.Matching.DirectoryIndex

	switch os.Args[1] {
	case "setup":
		setupCmd.Parse(os.Args[2:])
		if err := setupIndex(ctx, es, index, *recreate); err != nil {
			fmt.Printf("Error creating index: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Index %s is ready.\n", index)

	case "seed":
		seedCmd.Parse(os.Args[2:])
		if *seedFile == "" {
			fmt.Println("Error: -file is required for seed.")
			seedCmd.Usage()
			os.Exit(1)
		}
		count, err := seedIndex(ctx, es, index, *seedFile)
		if err != nil {
			fmt.Printf("Error seeding index: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d professionals into %s.\n", count, index)

	case "ping":
		if err := es.Ping(); err != nil {
			fmt.Printf("Elasticsearch unreachable: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Elasticsearch is reachable.")

	case "help":
		help()

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		help()
		os.Exit(1)
	}
}

func setupIndex(ctx context.Context, es *database.ElasticsearchClient, index string, recreate bool) error {
	client := es.GetClient()

	exists, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, client)
	if err != nil {
		return err
	}
	exists.Body.Close()

	if exists.StatusCode == 200 {
		if !recreate {
			return nil
		}
		del, err := esapi.IndicesDeleteRequest{Index: []string{index}}.Do(ctx, client)
		if err != nil {
			return err
		}
		del.Body.Close()
		if del.IsError() {
			return fmt.Errorf("deleting index: %s", del.String())
		}
	}

	res, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("creating index: %s", res.String())
	}
	return nil
}

func seedIndex(ctx context.Context, es *database.ElasticsearchClient, index, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var docs []map[string]interface{}
	if err := json.Unmarshal(data, &docs); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	client := es.GetClient()
	for i, doc := range docs {
		id, _ := doc["id"].(string)
		if id == "" {
			return i, fmt.Errorf("document %d has no id", i)
		}
		delete(doc, "id")

		body, err := json.Marshal(doc)
		if err != nil {
			return i, err
		}

		res, err := esapi.IndexRequest{
			Index:      index,
			DocumentID: id,
			Body:       strings.NewReader(string(body)),
			Refresh:    "true",
		}.Do(ctx, client)
		if err != nil {
			return i, err
		}
		res.Body.Close()
		if res.IsError() {
			return i, fmt.Errorf("indexing %s: %s", id, res.String())
		}
	}
	return len(docs), nil
}

func help() {
	fmt.Println(`Usage: directory-setup <command> [flags]

Commands:
  setup   Create the professional directory index with its mapping.
          -recreate  drop and recreate if the index already exists
  seed    Bulk index professionals from a JSON file.
          -file      path to a JSON array of documents
  ping    Check Elasticsearch connectivity.
  help    Show this message.`)
}
