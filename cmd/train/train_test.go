package train

import (
	"bytes"
	"errors"
	"testing"

	"fjacquet/txmerge/internal/classifier"
	"fjacquet/txmerge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainCommand_Metadata(t *testing.T) {
	assert.Equal(t, "train <period>", Cmd.Use)
	assert.NotNil(t, Cmd.RunE)
	assert.Error(t, Cmd.Args(Cmd, nil))
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name string
		out  classifier.Outcome
		want string
	}{
		{
			name: "disabled",
			out:  classifier.Disabled(),
			want: "Classifier disabled. Samples: 0. Classes: 0.\n",
		},
		{
			name: "trained",
			out:  classifier.Outcome{Status: models.MLStatusTrained, Samples: 40, Classes: 5, Fingerprint: "0123456789abcdef"},
			want: "Classifier trained. Samples: 40. Classes: 5. Fingerprint: 0123456789abcdef.\n",
		},
		{
			name: "failed",
			out:  classifier.Outcome{Status: models.MLStatusFailed, Samples: 12, Classes: 3, Fingerprint: "ff", Err: errors.New("boom")},
			want: "Classifier failed. Samples: 12. Classes: 3. Fingerprint: ff. Error: boom.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, PrintOutcome(&buf, tt.out))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
