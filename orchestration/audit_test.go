package orchestration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaugeflow/passthrough/utils/unittest"
)

func TestAuditLog(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		audit := NewAuditLog(filepath.Join(dir, "deployments"), "arbitrum")
		assert.Equal(t, filepath.Join(dir, "deployments", "deploy_blueprint_arbitrum.log"), audit.Path(AuditDeployBlueprint))

		require.NoError(t, audit.Record(AuditDeployBlueprint, Field{"Passthrough Blueprint", "0x1"}, Field{"Link", "l1"}))
		require.NoError(t, audit.Record(AuditDeployBlueprint, Field{"Passthrough Blueprint", "0x2"}))

		content, err := os.ReadFile(audit.Path(AuditDeployBlueprint))
		require.NoError(t, err)

		separator := strings.Repeat("-", 80)
		expected := "Passthrough Blueprint: 0x1\nLink: l1\n" + separator + "\n\n" +
			"Passthrough Blueprint: 0x2\n" + separator + "\n\n"
		assert.Equal(t, expected, string(content))
	})
}

func TestAuditLogFreeLines(t *testing.T) {
	unittest.RunWithTempDir(t, func(dir string) {
		audit := NewAuditLog(dir, "sonic")
		require.NoError(t, audit.Record(AuditDeployMany,
			Field{"Name", "a"},
			Rule(),
			Text("Change this on gauge"),
			Field{"if coin already added", ""},
			Text(""),
		))

		content, err := os.ReadFile(audit.Path(AuditDeployMany))
		require.NoError(t, err)
		expected := "Name: a\n" + strings.Repeat("-", 20) + "\nChange this on gauge\nif coin already added: \n\n" +
			strings.Repeat("-", 80) + "\n\n"
		assert.Equal(t, expected, string(content))
	})
}
