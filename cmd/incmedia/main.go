// Command incmedia records a backup run against the least recently used
// medium of a type: the selected medium gets its last-used date stamped
// and its usage count incremented.
//
// Usage: incmedia <rootDir> tape|externalHD|CDRW|flash [ -qm | -qn | -qmn ]
//
// The quiet flags suppress the confirmation message (-qm), the desktop
// notification (-qn) or both (-qmn). The exit code is always 0; problems
// go to stderr so scheduled backup jobs never fail on a reporting error.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/EdGit97/sysdocs/sitedb"
)

func main() {
	run(os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(0)
}

func run(args []string, stdout, stderr io.Writer) {
	p := parseArgs(args)
	if p.ok() {
		increment(p, stdout)
	}
	for _, e := range p.errs {
		fmt.Fprintln(stderr, e)
	}
}

func increment(p *cliParms, stdout io.Writer) {
	store := sitedb.NewMediaStore(p.rootDir)
	m, found, err := store.Increment(p.mediaType)
	if err != nil {
		p.addErr(err.Error())
		return
	}
	if !found {
		p.addErr(fmt.Sprintf("No existing media of type %s.", p.mediaType.DisplayName))
		return
	}

	if !p.quietMsg {
		fmt.Fprintln(stdout, completionMsg(m.ID))
	}
	if !p.quietNote {
		if err := notify(p.mediaType, m.ID); err != nil {
			p.addErr(err.Error())
		}
	}
}

func completionMsg(mediaID string) string {
	return "Media " + mediaID + ": Last Used date and Usage Count updated."
}

// notify raises a desktop notification when a notifier is available;
// a desktop-less host is not an error.
func notify(mt sitedb.MediaType, mediaID string) error {
	bin, err := exec.LookPath("notify-send")
	if err != nil {
		return nil
	}
	title := "SysDocs " + mt.DisplayName + " backup complete"
	return exec.Command(bin, title, completionMsg(mediaID)).Run()
}
