package collector

import (
	"bytes"
	"fmt"
)

const (
	// SystemNamespace holds hbase:meta, hbase:namespace and the other catalog tables
	SystemNamespace = "hbase"
	// DefaultNamespace is omitted from table names
	DefaultNamespace = "default"
)

// TableFromRegionName extracts the table from "<table>,<start key>,<region id>[.<encoded>.]".
// Table names cannot contain ',' so the first comma ends the table.
func TableFromRegionName(name []byte) (string, error) {
	idx := bytes.IndexByte(name, ',')
	if idx <= 0 {
		return "", fmt.Errorf("invalid region name: no table delimiter")
	}

	table := name[:idx]
	if ns, qualifier, found := bytes.Cut(table, []byte{':'}); found {
		return QualifiedTableName(string(ns), string(qualifier)), nil
	}
	return string(table), nil
}

// QualifiedTableName renders a table the way the shell prints it: "ns:qualifier",
// or the bare qualifier in the default namespace.
func QualifiedTableName(namespace, qualifier string) string {
	if namespace == "" || namespace == DefaultNamespace {
		return qualifier
	}
	return namespace + ":" + qualifier
}
