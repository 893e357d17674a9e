package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	compliancehandler "exportdocs/internal/compliance/handler"
	"exportdocs/internal/lifecycle"
	"exportdocs/internal/platform/auth"
	shiphandler "exportdocs/internal/shipment/handler"
	id "exportdocs/pkg/domain"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"requirements", "extract", "token", "transitions", "scan-placeholders", "recompute-all"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestScanPlaceholdersCommand_Flags(t *testing.T) {
	flag := scanPlaceholdersCmd.Flags().Lookup("page-size")
	require.NotNil(t, flag)
	assert.Equal(t, "100", flag.DefValue)
	require.NotNil(t, recomputeAllCmd.Flags().Lookup("org"))
}

func TestRequirementsCommand(t *testing.T) {
	out, err := execute(t, nil, "requirements", "1801.00")
	require.NoError(t, err)

	var resp compliancehandler.RequirementResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Classified)
	assert.True(t, resp.DueDiligenceRequired)
	assert.NotEmpty(t, resp.RequiredDocuments)
}

func TestTransitionsCommand(t *testing.T) {
	out, err := execute(t, nil, "transitions")
	require.NoError(t, err)
	assert.Contains(t, out, "FROM")
	assert.Regexp(t, `LINKED\s+ARCHIVED\s+archive\s+admin`, out)
	assert.Equal(t, len(lifecycle.Rules())+1, strings.Count(out, "\n"), "header plus one line per transition")
}

func TestExtractCommand(t *testing.T) {
	text := "BILL OF LADING\nContainer No. MRSU 345-2572\nGross weight: 1000 kg"

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bol.txt")
		require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

		out, err := execute(t, nil, "extract", "--type", "BILL_OF_LADING", path)
		require.NoError(t, err)
		var resp compliancehandler.PreviewResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.NotNil(t, resp.Container)
		assert.Equal(t, "MRSU3452572", resp.Container.ContainerID)
		assert.True(t, resp.Suggestible)
	})

	t.Run("from stdin", func(t *testing.T) {
		out, err := execute(t, strings.NewReader(text), "extract", "--type", "commercial_invoice", "-")
		require.NoError(t, err)
		var resp compliancehandler.PreviewResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Nil(t, resp.Container)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := execute(t, nil, "extract", "--type", "passport", "-")
		assert.Error(t, err)
	})
}

func TestTokenIssueCommand(t *testing.T) {
	orgID := id.NewOrganizationID()
	actorID := id.NewActorID()

	out, err := execute(t, nil, "token", "issue",
		"--actor", actorID.String(),
		"--org", orgID.String(),
		"--role", "compliance",
		"--ttl", "10m",
	)
	require.NoError(t, err)

	claims, err := auth.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer).Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, actorID.String(), claims.ActorID)
	assert.Equal(t, orgID.String(), claims.OrganizationID)
	assert.Equal(t, "compliance", claims.Role)

	_, err = execute(t, nil, "token", "issue",
		"--actor", actorID.String(),
		"--org", orgID.String(),
		"--role", "system",
		"--ttl", "10m",
	)
	assert.Error(t, err, "the system role is never issued")
}

func TestScanPlaceholdersCommand(t *testing.T) {
	orgID := id.NewOrganizationID()

	out, err := execute(t, nil, "scan-placeholders", "--org", orgID.String(), "--page-size", "50", "--pages-per-second", "100")
	require.NoError(t, err)
	var resp shiphandler.ShipmentListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 0, resp.Count)

	_, err = execute(t, nil, "scan-placeholders", "--org", orgID.String(), "--page-size", "0", "--pages-per-second", "100")
	assert.Error(t, err)
}

func TestRecomputeAllCommand(t *testing.T) {
	out, err := execute(t, nil, "recompute-all", "--org", id.NewOrganizationID().String())
	require.NoError(t, err)
	var resp shiphandler.RecomputeAllResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 0, resp.Changed)
}
