package session

import (
	"strings"
	"testing"
)

func TestResolveChannel_Unknown(t *testing.T) {
	_, err := resolveChannel("netscape")
	if err == nil {
		t.Fatal("expected error for unknown channel")
	}
	if !strings.Contains(err.Error(), "netscape") {
		t.Errorf("error should name the channel: %v", err)
	}
}

func TestChannelCandidates_KnownChannelsCoverAllPlatforms(t *testing.T) {
	for _, channel := range []string{"msedge", "chrome", "chrome-beta", "chromium"} {
		perOS, ok := channelCandidates[channel]
		if !ok {
			t.Errorf("channel %q missing", channel)
			continue
		}
		for _, goos := range []string{"windows", "darwin", "linux"} {
			if len(perOS[goos]) == 0 {
				t.Errorf("channel %q has no candidates for %s", channel, goos)
			}
		}
	}
}
