package sitedb

import (
	"os"
	"path/filepath"

	"github.com/EdGit97/sysdocs/dbf"
)

func readDataFile(root, table string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(root, dbf.DataDir, table+".dbf"))
	return string(raw), err
}
