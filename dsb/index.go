package dsb

import (
	"fmt"
	"strings"
)

// LoginFailedMarker is what both backends put into ResultStatusInfo on bad credentials
const LoginFailedMarker = "Login fehlgeschlagen"

// Index is the menu structure returned by a data endpoint
type Index struct {
	ResultCode       int        `json:"Resultcode"`
	ResultStatusInfo string     `json:"ResultStatusInfo"`
	StartIndex       int        `json:"StartIndex"`
	ResultMenuItems  []MenuItem `json:"ResultMenuItems"`
}

// MenuItem is one node of the index. Leaf nodes carry the document link in Detail.
type MenuItem struct {
	Index   int        `json:"Index"`
	Title   string     `json:"Title"`
	Detail  string     `json:"Detail"`
	Date    string     `json:"Date"`
	Preview string     `json:"Preview"`
	Childs  []MenuItem `json:"Childs"`
	Root    *MenuItem  `json:"Root"`
}

// LoginFailed reports whether the server rejected the credentials
func (i *Index) LoginFailed() bool {
	return strings.TrimSpace(i.ResultStatusInfo) == LoginFailedMarker
}

// IndexPath describes where the plan document sits inside an Index:
// ResultMenuItems[Menu].Childs[title == Title].Root, then Childs[i] for each i in Childs.
type IndexPath struct {
	Menu   int    `yaml:"menu"`
	Title  string `yaml:"menu_title"`
	Childs []int  `yaml:"childs"`
}

// DefaultIndexPath matches the layout DSBmobile currently serves
func DefaultIndexPath() IndexPath {
	return IndexPath{Menu: 0, Title: "Pläne", Childs: []int{0, 0}}
}

// Resolve walks the index along p and returns the Detail link of the leaf.
// Any missing node yields ErrStructuralMismatch.
func (p IndexPath) Resolve(index *Index) (string, error) {
	if index == nil {
		return "", fmt.Errorf("%w: no index", ErrStructuralMismatch)
	}
	if p.Menu < 0 || p.Menu >= len(index.ResultMenuItems) {
		return "", fmt.Errorf("%w: menu %d not in index (%d menus)", ErrStructuralMismatch, p.Menu, len(index.ResultMenuItems))
	}

	var tab *MenuItem
	menu := &index.ResultMenuItems[p.Menu]
	for i := range menu.Childs {
		if menu.Childs[i].Title == p.Title {
			tab = &menu.Childs[i]
			break
		}
	}
	if tab == nil {
		return "", fmt.Errorf("%w: no tab titled %q", ErrStructuralMismatch, p.Title)
	}
	if tab.Root == nil {
		return "", fmt.Errorf("%w: tab %q has no root", ErrStructuralMismatch, p.Title)
	}

	node := tab.Root
	for depth, i := range p.Childs {
		if i < 0 || i >= len(node.Childs) {
			return "", fmt.Errorf("%w: child %d missing at depth %d", ErrStructuralMismatch, i, depth)
		}
		node = &node.Childs[i]
	}

	detail := strings.TrimSpace(node.Detail)
	if detail == "" {
		return "", fmt.Errorf("%w: leaf has no detail link", ErrStructuralMismatch)
	}
	return detail, nil
}
