package services

import "strings"

// TokenizeRow splits a single delimited line into its raw cell values.
// Fields may be wrapped in double quotes to embed the delimiter, and a
// doubled quote inside a quoted field ("") becomes a literal quote.
// An unterminated quote is tolerated: the field simply runs to the end
// of the line. Supplier files are messy enough that aborting on a
// malformed row would throw away the rest of an otherwise usable file.
func TokenizeRow(line string, delim rune) []string {
	var cells []string
	var field strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuotes && r == '"':
			if i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				inQuotes = false
			}
		case !inQuotes && r == '"':
			inQuotes = true
		case !inQuotes && r == delim:
			cells = append(cells, field.String())
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	cells = append(cells, field.String())
	return cells
}

// DetectDelimiter guesses the field delimiter for a file from its header
// line. European supplier exports are frequently semicolon-delimited; a
// line with more semicolons than commas is treated as such.
func DetectDelimiter(line string) rune {
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}
