package inspect

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/plus3/simcore/ecs"
)

type EntityInfo struct {
	ID             ecs.EntityId
	ComponentTypes []string
	ComponentCount int
}

// Sort columns of the entity browser.
const (
	SortById = iota
	SortByComponents
	SortByCount
)

// EntityBrowser lists entities page by page. Its row cache is rebuilt when
// the number of entities or components changes, or when Refresh is called.
type EntityBrowser struct {
	entities      []EntityInfo
	lastStamp     stamp
	sortColumn    int
	sortAscending bool

	selected    ecs.EntityId
	filterText  string
	pageSize    int
	currentPage int
}

func NewEntityBrowser(pageSize int) *EntityBrowser {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &EntityBrowser{
		lastStamp:     stamp{entities: -1},
		sortAscending: true,
		pageSize:      pageSize,
	}
}

// SetFilter keeps only entities whose id or component type names contain
// text, case-insensitively.
func (eb *EntityBrowser) SetFilter(text string) {
	eb.filterText = text
	eb.currentPage = 0
}

func (eb *EntityBrowser) SetSort(column int, ascending bool) {
	eb.sortColumn = column
	eb.sortAscending = ascending
	eb.sortEntities()
}

func (eb *EntityBrowser) Select(eid ecs.EntityId) { eb.selected = eid }
func (eb *EntityBrowser) Selected() ecs.EntityId  { return eb.selected }

func (eb *EntityBrowser) NextPage() {
	if eb.currentPage < eb.pageCount()-1 {
		eb.currentPage++
	}
}

func (eb *EntityBrowser) PrevPage() {
	if eb.currentPage > 0 {
		eb.currentPage--
	}
}

// Refresh drops the row cache.
func (eb *EntityBrowser) Refresh() { eb.entities = nil }

// Rows returns the filtered rows of the current page.
func (eb *EntityBrowser) Rows(em *ecs.EntityManager) []EntityInfo {
	eb.rebuildCacheIfNeeded(em)
	filtered := eb.filteredEntities()
	start := min(eb.currentPage*eb.pageSize, len(filtered))
	end := min(start+eb.pageSize, len(filtered))
	return filtered[start:end]
}

func (eb *EntityBrowser) Render(w io.Writer, em *ecs.EntityManager) error {
	ew := &errWriter{w: w}
	header(ew, "Entity Browser")

	rows := eb.Rows(em)
	tw := newTable(ew.w)
	fmt.Fprintln(tw, "\tEntity ID\tComponents\tCount")
	for _, row := range rows {
		mark := " "
		if row.ID == eb.selected {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", mark, row.ID, strings.Join(row.ComponentTypes, ", "), row.ComponentCount)
	}
	ew.flush(tw)

	total := len(eb.filteredEntities())
	if total > eb.pageSize {
		ew.printf("Page %d / %d (%d entities)\n", eb.currentPage+1, eb.pageCount(), total)
	} else {
		ew.printf("Total: %d entities\n", total)
	}
	return ew.err
}

func (eb *EntityBrowser) pageCount() int {
	return max(1, (len(eb.filteredEntities())+eb.pageSize-1)/eb.pageSize)
}

func (eb *EntityBrowser) rebuildCacheIfNeeded(em *ecs.EntityManager) {
	if st := takeStamp(em); st != eb.lastStamp {
		eb.entities = nil
		eb.lastStamp = st
	}
	if eb.entities == nil {
		eb.rebuildCache(em)
	}
}

func (eb *EntityBrowser) rebuildCache(em *ecs.EntityManager) {
	ids := em.EntityIds()
	eb.entities = make([]EntityInfo, 0, len(ids))
	for _, eid := range ids {
		components := em.GetComponents(eid)
		types := make([]string, len(components))
		for i, c := range components {
			types[i] = typeName(em, c.Type())
		}
		eb.entities = append(eb.entities, EntityInfo{
			ID:             eid,
			ComponentTypes: types,
			ComponentCount: len(types),
		})
	}
	eb.sortEntities()
}

func (eb *EntityBrowser) sortEntities() {
	slices.SortStableFunc(eb.entities, func(a, b EntityInfo) int {
		var c int
		switch eb.sortColumn {
		case SortByComponents:
			c = strings.Compare(strings.Join(a.ComponentTypes, ","), strings.Join(b.ComponentTypes, ","))
		case SortByCount:
			c = cmp.Compare(a.ComponentCount, b.ComponentCount)
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if !eb.sortAscending {
			return -c
		}
		return c
	})
}

func (eb *EntityBrowser) filteredEntities() []EntityInfo {
	if eb.filterText == "" {
		return eb.entities
	}

	filtered := make([]EntityInfo, 0, len(eb.entities))
	filterLower := strings.ToLower(eb.filterText)
	for _, entity := range eb.entities {
		idStr := fmt.Sprintf("%d", entity.ID)
		componentsStr := strings.ToLower(strings.Join(entity.ComponentTypes, " "))
		if !strings.Contains(idStr, filterLower) && !strings.Contains(componentsStr, filterLower) {
			continue
		}
		filtered = append(filtered, entity)
	}
	return filtered
}
