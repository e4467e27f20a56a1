package main

import (
	"bytes"
	"io"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readScriptSource reads the script text named by file, "-" meaning
// stdin, and strips a leading UTF-8 BOM if present (§6: "UTF-8 text with
// optional BOM").
func readScriptSource(file string) (string, error) {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	return string(data), nil
}

func executablePath() string {
	p, err := os.Executable()
	if err != nil {
		return appName
	}
	return p
}
