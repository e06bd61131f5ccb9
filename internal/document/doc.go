// Package document parses and writes Uncrustify-style configuration text.
//
// A configuration file is a sequence of lines of three kinds:
//
//	# comment line(s)
//	name = value
//	name = value # hint
//	<blank line>
//
// Parse turns the text into an ordered Document of entries. Every line maps
// to exactly one entry or is attached to the assignment that follows it, so
// parsing never fails. Serialize is the inverse: for any document d produced
// by Parse, Parse(Serialize(d)) yields the same entries in the same order.
//
// # Entries
//
// An Entry is either a *Comment (a comment, blank or unparsed line) or a
// *Value (an assignment). Consumers switch on the concrete type:
//
//	for _, e := range doc.Entries {
//	    switch e := e.(type) {
//	    case *document.Comment:
//	        fmt.Println("comment:", e.Text)
//	    case *document.Value:
//	        fmt.Println(e.Name, "=", e.Value)
//	    }
//	}
//
// # Edited values
//
// A value carrying the comment line "# Edited: YES" (see Sentinel) has been
// changed by the user. The flag and the comment line always agree; use the
// edit package to change values so both are kept in sync.
package document
