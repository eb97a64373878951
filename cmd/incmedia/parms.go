package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/EdGit97/sysdocs/sitedb"
)

func usage() string {
	tags := make([]string, 0, 4)
	for _, mt := range sitedb.KnownTypes() {
		tags = append(tags, mt.Tag)
	}
	return "Usage: incmedia <rootDir> " + strings.Join(tags, "|") + " [ -qm | -qn | -qmn ]"
}

// cliParms is the parsed and validated command line. Problems collect into
// errs; they are reported together rather than one per run.
type cliParms struct {
	rootDir   string
	mediaType sitedb.MediaType
	quietMsg  bool
	quietNote bool
	errs      []string
}

func parseArgs(args []string) *cliParms {
	p := &cliParms{}
	if len(args) < 2 {
		p.errs = append(p.errs, usage())
		return p
	}

	p.rootDir = args[0]
	p.mediaType = sitedb.MediaTypeFor(args[1])

	if len(args) > 2 && strings.HasPrefix(args[2], "-q") {
		quiet := strings.ToUpper(args[2])
		p.quietMsg = strings.ContainsRune(quiet, 'M')
		p.quietNote = strings.ContainsRune(quiet, 'N')
	}

	if fi, err := os.Stat(p.rootDir); err != nil || !fi.IsDir() {
		p.errs = append(p.errs, fmt.Sprintf("Directory %s does not exist or is not a directory.", p.rootDir))
	}
	if p.mediaType == sitedb.UnknownType {
		p.errs = append(p.errs, "Unknown media type.")
	}
	return p
}

func (p *cliParms) ok() bool {
	return len(p.errs) == 0
}

func (p *cliParms) addErr(err string) {
	p.errs = append(p.errs, err)
}
