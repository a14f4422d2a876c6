package graph

import (
	"context"
	"testing"
	"time"

	"zabbix2es/internal/domain"
)

func TestProjectorAgainstNeo4j(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, Config{
		URI:      "bolt://localhost:7687",
		Username: "neo4j",
		Password: "StrongPassw0rd",
		Database: "neo4j",
	})
	if err != nil {
		t.Skipf("neo4j not available: %v", err)
	}
	defer client.Close(ctx)

	if err := client.RunWrite(ctx, "MATCH (n) WHERE n:Host OR n:Problem DETACH DELETE n", nil); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	p := NewProjector(client, 50, nil)
	if err := p.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	now := time.Now().UTC()
	hosts := []domain.Host{{ID: "10084", Name: "srv1", Status: domain.StatusUp, ObservedAt: now}}
	problems := []domain.Problem{{EventID: "500", HostID: "10084", Severity: domain.SeverityHigh, ObservedAt: now}}
	if err := p.ProjectHosts(ctx, "run-a", hosts); err != nil {
		t.Fatalf("project hosts: %v", err)
	}
	if err := p.ProjectProblems(ctx, "run-a", problems); err != nil {
		t.Fatalf("project problems: %v", err)
	}
	topo, found, err := p.HostTopology(ctx, "10084")
	if err != nil || !found || len(topo.Problems) != 1 {
		t.Fatalf("unexpected topology %+v found=%v err=%v", topo, found, err)
	}

	if err := p.ProjectProblems(ctx, "run-b", nil); err != nil {
		t.Fatalf("project problems: %v", err)
	}
	topo, _, _ = p.HostTopology(ctx, "10084")
	if len(topo.Problems) != 0 {
		t.Fatalf("resolved problems should be removed, got %+v", topo.Problems)
	}
}
