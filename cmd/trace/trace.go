package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/timewinder-dev/sol/lexer"
)

var (
	file    = flag.String("file", "", "Source file")
	imports = flag.Bool("imports", true, "Print the imports found by the pre-pass")
)

func main() {
	flag.Parse()
	if *file == "" {
		log.Fatal("--file is required")
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("couldn't read: %s", err)
	}
	text := lexer.Normalize(string(data))
	if *imports {
		for _, p := range lexer.ScanImports(text) {
			fmt.Printf("import %s\n", p)
		}
	}
	trace(lexer.NewAt(*file, text, 1))
}

func trace(l *lexer.Lexer) {
	line := 0
	for {
		t, err := l.Next()
		if err != nil {
			log.Fatalln("Got err:", err)
		}
		if t.Line != line {
			line = t.Line
			fmt.Printf("******* line %d\n", line)
		}
		fmt.Printf("%s\n", t)
		switch t.Kind {
		case lexer.EOF:
			fmt.Println("Finished")
			return
		case lexer.DoubleSlash:
			l.SkipLine()
		case lexer.LBlockComment:
			l.SkipBlockComment()
		}
	}
}
