package session

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// channelCandidates maps a browser channel to the binary names and install
// paths probed per OS. Order matters: the first hit wins.
var channelCandidates = map[string]map[string][]string{
	"msedge": {
		"windows": {
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
			`C:\Program Files\Microsoft\Edge\Application\msedge.exe`,
		},
		"darwin": {"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"},
		"linux":  {"microsoft-edge", "microsoft-edge-stable"},
	},
	"chrome": {
		"windows": {
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		},
		"darwin": {"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"},
		"linux":  {"google-chrome", "google-chrome-stable"},
	},
	"chrome-beta": {
		"windows": {`C:\Program Files\Google\Chrome Beta\Application\chrome.exe`},
		"darwin":  {"/Applications/Google Chrome Beta.app/Contents/MacOS/Google Chrome Beta"},
		"linux":   {"google-chrome-beta"},
	},
	"chromium": {
		"windows": {`C:\Program Files\Chromium\Application\chrome.exe`},
		"darwin":  {"/Applications/Chromium.app/Contents/MacOS/Chromium"},
		"linux":   {"chromium", "chromium-browser"},
	},
}

// resolveChannel maps a browser channel name to an installed binary path.
func resolveChannel(channel string) (string, error) {
	perOS, ok := channelCandidates[channel]
	if !ok {
		return "", fmt.Errorf("unknown browser channel %q", channel)
	}

	for _, candidate := range perOS[runtime.GOOS] {
		if filepath.IsAbs(candidate) {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s binary found on %s", channel, runtime.GOOS)
}
