package inspect

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/plus3/simcore/ecs"
)

type SystemInfo struct {
	Type           string
	BaseType       string
	ComponentCount int
	Properties     []string
	Methods        []string
}

// Sort columns of the system browser.
const (
	SortByType = iota
	SortByBaseType
	SortByComponentCount
)

// SystemBrowser lists the entity systems of a manager with their component
// counts, system properties and scripted methods.
type SystemBrowser struct {
	systems       []SystemInfo
	sortColumn    int
	sortAscending bool
}

// NewSystemBrowser sorts by component count, largest first.
func NewSystemBrowser() *SystemBrowser {
	return &SystemBrowser{sortColumn: SortByComponentCount}
}

func (sb *SystemBrowser) SetSort(column int, ascending bool) {
	sb.sortColumn = column
	sb.sortAscending = ascending
}

// Systems collects and sorts the current system rows.
func (sb *SystemBrowser) Systems(em *ecs.EntityManager) []SystemInfo {
	sb.systems = sb.systems[:0]
	for _, s := range em.EntitySystems() {
		info := SystemInfo{
			Type:           typeName(em, s.ComponentType()),
			ComponentCount: s.ComponentCount(),
		}
		if base := s.BaseType(); base != 0 {
			info.BaseType = typeName(em, base)
		}
		s.Properties().Each(func(name ecs.StringId, p ecs.Property) {
			info.Properties = append(info.Properties, fmt.Sprintf("%s=%s", typeName(em, name), formatValue(em, p)))
		})
		for _, m := range s.ScriptedMethodNames() {
			info.Methods = append(info.Methods, typeName(em, m))
		}
		slices.Sort(info.Methods)
		sb.systems = append(sb.systems, info)
	}
	sb.sortSystems()
	return sb.systems
}

func (sb *SystemBrowser) Render(w io.Writer, em *ecs.EntityManager) error {
	ew := &errWriter{w: w}
	header(ew, "Entity Systems")

	systems := sb.Systems(em)
	maxCount := 0
	for _, s := range systems {
		maxCount = max(maxCount, s.ComponentCount)
	}

	tw := newTable(ew.w)
	fmt.Fprintln(tw, "Type\tBase\tComponents\t\tProperties\tMethods")
	for _, s := range systems {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			s.Type, s.BaseType, s.ComponentCount, bar(s.ComponentCount, maxCount, 20),
			strings.Join(s.Properties, " "), strings.Join(s.Methods, ", "))
	}
	ew.flush(tw)
	ew.printf("Total: %d systems\n", len(systems))
	return ew.err
}

// bar draws n relative to total as a row of at most width hashes.
func bar(n, total, width int) string {
	if total == 0 || n == 0 {
		return ""
	}
	return strings.Repeat("#", max(1, n*width/total))
}

func (sb *SystemBrowser) sortSystems() {
	slices.SortStableFunc(sb.systems, func(a, b SystemInfo) int {
		var c int
		switch sb.sortColumn {
		case SortByBaseType:
			c = strings.Compare(a.BaseType, b.BaseType)
		case SortByComponentCount:
			c = cmp.Compare(a.ComponentCount, b.ComponentCount)
		default:
			c = strings.Compare(a.Type, b.Type)
		}
		if !sb.sortAscending {
			c = -c
		}
		if c == 0 {
			c = strings.Compare(a.Type, b.Type)
		}
		return c
	})
}
