package main

import (
	"github.com/suanview/orchard/tools/linters/ambientnow"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(ambientnow.Analyzer)
}
