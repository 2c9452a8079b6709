package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/learnroad/pkg/domain/doctrine"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const (
	schemaURI   = "learnroad://schema"
	doctrineURI = "learnroad://doctrine"
)

var toolNames = []string{
	"learnroad_generate_plan",
	"learnroad_get_plan",
	"learnroad_status",
	"learnroad_progress",
	"learnroad_skip",
	"learnroad_mission",
	"learnroad_hint",
	"learnroad_score",
	"learnroad_get_usage",
}

type schemaResponse struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
}

type doctrineResponse struct {
	PassScore        int                    `json:"pass_score"`
	RegenerateScore  int                    `json:"regenerate_score"`
	MaxRegenerations int                    `json:"max_regenerations"`
	Rules            []doctrine.Rule        `json:"rules"`
	VagueRewrites    []doctrine.RewriteRule `json:"vague_rewrites"`
}

func (s *Server) registerSchemaResource() {
	s.jsonResource(schemaURI, "MCP tool schema version and tool list", func() any {
		return schemaResponse{SchemaVersion: SchemaVersion, ServerVersion: Version, Tools: toolNames}
	})
	s.jsonResource(doctrineURI, "Forbidden patterns, score thresholds and rewrite table", func() any {
		return doctrineResponse{
			PassScore:        s.doctrine.PassScore,
			RegenerateScore:  s.doctrine.RegenerateScore,
			MaxRegenerations: s.doctrine.MaxRegenerations,
			Rules:            s.doctrine.Rules,
			VagueRewrites:    s.doctrine.VagueRewrites,
		}
	})
}

func (s *Server) jsonResource(uri, description string, body func() any) {
	s.mcpServer.Resource(uri).
		Name(uri).
		Description(description).
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			data, err := json.Marshal(body())
			if err != nil {
				return nil, err
			}
			return &mcplib.ResourceContent{
				URI:      uri,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})
}
