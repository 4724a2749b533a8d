package purfectest

import "strings"

// Profile identifies a terminal emulator whose feature set a test wants the
// child process to see. It selects the TERM value exported to the child and
// documents which graphics protocols that terminal would accept, so a test
// can skip a protocol its target terminal could never produce.
type Profile int

const (
	ProfileVT100 Profile = iota
	ProfileXterm256
	ProfileScreen
	ProfileTmux
	ProfileAlacritty
	ProfileKitty
	ProfileWezTerm
	ProfileITerm2
	// ProfileMinimal advertises nothing beyond plain xterm.
	ProfileMinimal
	// ProfileMaximum advertises every feature; useful for exercising all
	// three graphics paths at once.
	ProfileMaximum
)

// DefaultProfile is a balanced choice that assumes no graphics support.
var DefaultProfile = ProfileXterm256

// Capabilities describes what a terminal profile supports.
type Capabilities struct {
	TermName       string
	Sixel          bool
	KittyGraphics  bool
	ITerm2Images   bool
	BracketedPaste bool
	AltScreen      bool
}

var profileCapabilities = map[Profile]Capabilities{
	ProfileVT100:     {TermName: "vt100"},
	ProfileXterm256:  {TermName: "xterm-256color", BracketedPaste: true, AltScreen: true},
	ProfileScreen:    {TermName: "screen", AltScreen: true},
	ProfileTmux:      {TermName: "tmux-256color", BracketedPaste: true, AltScreen: true},
	ProfileAlacritty: {TermName: "alacritty", BracketedPaste: true, AltScreen: true},
	ProfileKitty: {TermName: "xterm-kitty", KittyGraphics: true,
		BracketedPaste: true, AltScreen: true},
	ProfileWezTerm: {TermName: "wezterm", Sixel: true, KittyGraphics: true,
		ITerm2Images: true, BracketedPaste: true, AltScreen: true},
	ProfileITerm2: {TermName: "xterm-256color", Sixel: true, ITerm2Images: true,
		BracketedPaste: true, AltScreen: true},
	ProfileMinimal: {TermName: "xterm"},
	ProfileMaximum: {TermName: "xterm-256color", Sixel: true, KittyGraphics: true,
		ITerm2Images: true, BracketedPaste: true, AltScreen: true},
}

// Capabilities returns the feature set of the profile. Unknown profiles get
// the minimal set.
func (p Profile) Capabilities() Capabilities {
	if caps, ok := profileCapabilities[p]; ok {
		return caps
	}
	return profileCapabilities[ProfileMinimal]
}

// TermName returns the TERM environment value for the profile.
func (p Profile) TermName() string {
	return p.Capabilities().TermName
}

// SupportsProtocol reports whether a terminal with this profile accepts the
// given graphics protocol.
func (p Profile) SupportsProtocol(proto Protocol) bool {
	caps := p.Capabilities()
	switch proto {
	case ProtocolSixel:
		return caps.Sixel
	case ProtocolKitty:
		return caps.KittyGraphics
	case ProtocolITerm2:
		return caps.ITerm2Images
	default:
		return false
	}
}

func (p Profile) String() string {
	switch p {
	case ProfileVT100:
		return "vt100"
	case ProfileXterm256:
		return "xterm-256color"
	case ProfileScreen:
		return "screen"
	case ProfileTmux:
		return "tmux"
	case ProfileAlacritty:
		return "alacritty"
	case ProfileKitty:
		return "kitty"
	case ProfileWezTerm:
		return "wezterm"
	case ProfileITerm2:
		return "iterm2"
	case ProfileMinimal:
		return "minimal"
	case ProfileMaximum:
		return "maximum"
	default:
		return "unknown"
	}
}

// ProfileByName looks up a profile by its name or TERM value,
// case-insensitively.
func ProfileByName(name string) (Profile, bool) {
	switch strings.ToLower(name) {
	case "vt100":
		return ProfileVT100, true
	case "xterm-256color", "xterm256":
		return ProfileXterm256, true
	case "screen":
		return ProfileScreen, true
	case "tmux", "tmux-256color":
		return ProfileTmux, true
	case "alacritty":
		return ProfileAlacritty, true
	case "kitty", "xterm-kitty":
		return ProfileKitty, true
	case "wezterm":
		return ProfileWezTerm, true
	case "iterm2", "iterm":
		return ProfileITerm2, true
	case "xterm", "minimal":
		return ProfileMinimal, true
	case "maximum", "max":
		return ProfileMaximum, true
	default:
		return 0, false
	}
}

// Profiles returns every known profile.
func Profiles() []Profile {
	return []Profile{
		ProfileVT100, ProfileXterm256, ProfileScreen, ProfileTmux,
		ProfileAlacritty, ProfileKitty, ProfileWezTerm, ProfileITerm2,
		ProfileMinimal, ProfileMaximum,
	}
}
