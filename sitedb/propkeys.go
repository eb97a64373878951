package sitedb

// PropertyGroup is a section of related configuration properties. Groups
// marked multi-value store one row per line of the value.
type PropertyGroup struct {
	Name        string
	DisplayName string
	MultiValue  bool
}

var (
	GroupLog         = PropertyGroup{"log", "Log", false}
	GroupToolbars    = PropertyGroup{"toolbars", "Toolbars", true}
	GroupPinned      = PropertyGroup{"pinned", "Pinned Apps", true}
	GroupMediaUpdate = PropertyGroup{"mediaUpdate", "Media Update", false}
	GroupSMTP        = PropertyGroup{"smtp", "SMTP", false}
)

// PropertyKey describes one registered configuration property: where it
// lives, how it validates and how an editor should render it. Secret values
// are base64-encoded at rest; that is obfuscation against casual reading of
// the data file, not security.
type PropertyKey struct {
	Name        string
	Group       PropertyGroup
	Numeric     bool
	Description string
	Default     string
	BoxSize     int // character width of the edit box
	MaxLen      int
	Secret      bool
	Directory   bool // every line must name an existing directory
	TypeList    bool // rendered as a media type dropdown
}

// KeyName returns the qualified name, group.key.
func (k PropertyKey) KeyName() string {
	return k.Group.Name + "." + k.Name
}

var (
	LocalPrefix = PropertyKey{Name: "localPrefix", Group: GroupLog, Description: "Local log file name prefix", BoxSize: 20, MaxLen: 20}
	SchedFolder = PropertyKey{Name: "schedFolder", Group: GroupLog, Description: "Task Scheduler folder", Default: `\`, BoxSize: 20, MaxLen: 20}
	ToolbarDirs = PropertyKey{Name: "tbdir", Group: GroupToolbars, Description: "Directories", BoxSize: 70, MaxLen: 100, Directory: true}
	PinnedDirs  = PropertyKey{Name: "pin1", Group: GroupPinned, Description: "Directories", BoxSize: 70, MaxLen: 100, Directory: true}
	DefMedia    = PropertyKey{Name: "mediaType", Group: GroupMediaUpdate, Description: "Default media type", Default: Flash.DisplayName, BoxSize: 10, MaxLen: 10, TypeList: true}
	NotifyEmail = PropertyKey{Name: "notifyEmail", Group: GroupMediaUpdate, Description: "Notification email address", BoxSize: 20, MaxLen: 50}
	MediaPwd    = PropertyKey{Name: "mediaPwd", Group: GroupMediaUpdate, Description: "Default media password", BoxSize: 20, MaxLen: 50, Secret: true}
	VolumeLbl   = PropertyKey{Name: "volumeLbl", Group: GroupMediaUpdate, Description: "Local media volume label", BoxSize: 10, MaxLen: 12}
	ServerAddr  = PropertyKey{Name: "serverAddr", Group: GroupSMTP, Description: "SMTP server URL", BoxSize: 20, MaxLen: 50}
	ServerPort  = PropertyKey{Name: "serverPort", Group: GroupSMTP, Description: "SMTP server port", BoxSize: 5, MaxLen: 5, Numeric: true}
	ServerAcct  = PropertyKey{Name: "serverAcct", Group: GroupSMTP, Description: "SMTP account", BoxSize: 20, MaxLen: 50}
	ServerPwd   = PropertyKey{Name: "serverPwd", Group: GroupSMTP, Description: "SMTP account password", BoxSize: 20, MaxLen: 20, Secret: true}
)

// RegisteredKeys lists every property key in registry order, which is also
// the order editors display them in.
func RegisteredKeys() []PropertyKey {
	return []PropertyKey{
		LocalPrefix, SchedFolder,
		ToolbarDirs,
		PinnedDirs,
		DefMedia, NotifyEmail, MediaPwd, VolumeLbl,
		ServerAddr, ServerPort, ServerAcct, ServerPwd,
	}
}

// KeyByName resolves a bare key name (without the group qualifier) back to
// its registry entry.
func KeyByName(name string) (PropertyKey, bool) {
	for _, k := range RegisteredKeys() {
		if k.Name == name {
			return k, true
		}
	}
	return PropertyKey{}, false
}
