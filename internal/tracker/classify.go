package tracker

import (
	"strings"

	"github.com/ENACT/enact/internal/models"
)

// classifyRule maps window-title keywords to an activity type. Rules are
// evaluated in order so specific services win over generic categories: a
// "YouTube - Google Chrome" title is youtube, not browsing.
type classifyRule struct {
	keywords []string
	activity models.ActivityType
}

var classifyRules = []classifyRule{
	{[]string{"youtube"}, models.ActivityYouTube},
	{[]string{"gmail"}, models.ActivityGmail},
	{[]string{"netflix", "prime video", "hotstar", "disney+", "hulu"}, models.ActivityOTT},
	{[]string{"twitch", "vimeo", "stream"}, models.ActivityStreaming},
	{[]string{"visual studio code", "vs code", "intellij", "pycharm", "goland", "sublime", "neovim", "vim", "emacs"}, models.ActivityCoding},
	{[]string{"outlook", "thunderbird", "mail"}, models.ActivityEmail},
	{[]string{"chrome", "firefox", "safari", "edge", "brave", "opera", "browser"}, models.ActivityBrowsing},
}

// browserProcesses catches browser windows whose titles carry no application
// name, which is common for maximized or kiosk windows.
var browserProcesses = []string{"chrome", "chromium", "firefox", "safari", "msedge", "edge", "brave", "opera", "vivaldi"}

// Classify maps an active window title and owning process name to an
// activity type. Title keywords are checked first; a recognized browser
// process then yields browsing regardless of title. No match is idle.
func Classify(windowTitle, processName string) models.ActivityType {
	title := strings.ToLower(strings.TrimSpace(windowTitle))
	if title != "" {
		for _, rule := range classifyRules {
			for _, keyword := range rule.keywords {
				if strings.Contains(title, keyword) {
					return rule.activity
				}
			}
		}
	}

	process := strings.ToLower(strings.TrimSpace(processName))
	if process != "" {
		for _, name := range browserProcesses {
			if strings.Contains(process, name) {
				return models.ActivityBrowsing
			}
		}
	}

	return models.ActivityIdle
}
