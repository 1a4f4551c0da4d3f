package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileCommands(t *testing.T) {
	cases := map[string]struct {
		script     string
		wantOut    string
		wantStatus int
	}{
		"create and remove tree": {
			"mkdir -p /tmp/a/b\ntouch /tmp/a/b/f\ncat /tmp/a/b/f\nrm /tmp/a\necho $?\nrm -r /tmp/a\ncat /tmp/a/b/f",
			"rm: cannot remove '/tmp/a': Is a directory\n1\ncat: /tmp/a/b/f: No such file or directory\n",
			1,
		},
		"relative paths": {
			"cd /tmp\nmkdir -v d\ntouch d/x\nrm d/x\nrm d/x\nrm -f d/x",
			"mkdir: created directory 'd'\nrm: cannot remove 'd/x': No such file or directory\n",
			0,
		},
		"mkdir exists":       {"mkdir /tmp", "mkdir: cannot create directory '/tmp': File exists\n", 1},
		"mkdir no operand":   {"mkdir", "mkdir: missing operand\n", 1},
		"touch no create":    {"touch -c /tmp/none; cat /tmp/none", "cat: /tmp/none: No such file or directory\n", 1},
		"cat directory":      {"cat /tmp", "cat: /tmp: Is a directory\n", 1},
		"cat many":           {"cat /etc/motd /missing /etc/motd", "welcome\ncat: /missing: No such file or directory\nwelcome\n", 1},
		"which missing":      {"which nope", "which: no nope in (/usr/bin:/bin)\n", 1},
		"hostname read only": {"hostname other", "hostname: you must be root to change the host name\n", 1},
	}

	for tn, tc := range cases {
		tc := tc
		t.Run(tn, func(t *testing.T) {
			out, status := runCommand(t, RunShell, "", "sh", "-c", tc.script)

			assert.Equal(t, tc.wantOut, string(out))
			assert.Equal(t, tc.wantStatus, status)
		})
	}
}
