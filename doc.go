/*
Package lattice is a versioned state-graph editor.

A document is a graph of named states whose outcomes point at other states. Every
edit is a reversible command, so the editor offers undo and redo, exports the
applied edits as a change list and commits that list as the next version of the
document in a change log.

# Concept

The graph (pkg/graph) enforces referential integrity: renames rewrite every
outcome that pointed at the old name and deletes repair every dangling outcome.
The command engine (pkg/history) is generic over the aggregate it edits, and the
analyzer (pkg/analyzer) reports answer-group rules that can never match.

Storage is reached through ports: a GraphSource provides the baseline of a
document and a ChangeLogStore keeps its commits. Adapters exist for memory,
files, SQLite, Redis and Loam repositories.

# Usage

	src := file.NewSource("./graphs")
	store := file.New("./.lattice/changes")

	ed, err := lattice.Open(ctx, "intro", src, lattice.WithStore(store))
	if err != nil {
		log.Fatal(err)
	}

	if err := ed.RenameState("Start", "Welcome"); err != nil {
		log.Fatal(err)
	}
	for name, warnings := range ed.AllWarnings() {
		log.Println(name, warnings)
	}

	commit, err := ed.Commit(ctx, "Rename entry state")
	if err != nil {
		log.Fatal(err)
	}
	log.Println("saved version", commit.Version)
*/
package lattice
