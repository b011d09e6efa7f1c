// Package inspect renders plain-text debugging views of an EntityManager:
// an entity browser, a component inspector, a system browser, a type query
// view and frame performance statistics. A Console bundles them, follows the
// standard selection messages and can run as a scheduler system.
package inspect

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/plus3/simcore/ecs"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// errWriter remembers the first write error so renderers can print freely
// and report once.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) flush(tw *tabwriter.Writer) {
	if ew.err != nil {
		return
	}
	ew.err = tw.Flush()
}

func header(ew *errWriter, title string) {
	ew.printf("== %s ==\n", title)
}

// stamp changes whenever entities or components are added or removed.
type stamp struct {
	entities, components int
}

func takeStamp(em *ecs.EntityManager) stamp {
	st := stamp{entities: em.EntityCount()}
	for _, s := range em.EntitySystems() {
		st.components += s.ComponentCount()
	}
	return st
}

func typeName(em *ecs.EntityManager, id ecs.StringId) string {
	if s, ok := em.StringTable().Resolve(id); ok {
		return s
	}
	return fmt.Sprintf("#%d", uint32(id))
}
