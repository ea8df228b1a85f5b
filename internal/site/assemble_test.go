package site

import (
	"html/template"
	"strings"
	"testing"

	"git.home.luguber.info/inful/docsmith/internal/content"
	"git.home.luguber.info/inful/docsmith/internal/docstring"
	"git.home.luguber.info/inful/docsmith/internal/pyscan"
)

func TestFormatSignature(t *testing.T) {
	tests := []struct {
		name string
		m    pyscan.Member
		want string
	}{
		{
			name: "annotated with default",
			m: pyscan.Member{Kind: pyscan.KindFunction, Params: []pyscan.Param{
				{Name: "code", Annotation: "str"},
				{Name: "strict", Annotation: "bool", Default: "False"},
			}, Returns: "bool"},
			want: "(code: str, strict: bool = False) -> bool",
		},
		{
			name: "bare default keeps tight spacing",
			m: pyscan.Member{Kind: pyscan.KindFunction, Params: []pyscan.Param{
				{Name: "kind", Default: "None"},
			}},
			want: "(kind=None)",
		},
		{
			name: "no params",
			m:    pyscan.Member{Kind: pyscan.KindFunction},
			want: "()",
		},
		{
			name: "annotated attribute",
			m:    pyscan.Member{Kind: pyscan.KindAttribute, Returns: "int"},
			want: ": int",
		},
		{
			name: "bare attribute",
			m:    pyscan.Member{Kind: pyscan.KindAttribute},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSignature(tt.m); got != tt.want {
				t.Errorf("formatSignature() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteMarkdownLink(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"usage.md", "usage.html"},
		{"guides/install.md", "guides/install.html"},
		{"usage.md#examples", "usage.html#examples"},
		{"#local-anchor", "#local-anchor"},
		{"https://example.com/page.md", "https://example.com/page.md"},
		{"//cdn.example.com/a.md", "//cdn.example.com/a.md"},
		{"image.png", "image.png"},
		{"usage.html", "usage.html"},
	}

	for _, tt := range tests {
		if got := rewriteMarkdownLink(tt.in); got != tt.want {
			t.Errorf("rewriteMarkdownLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRootPrefix(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"index.html", ""},
		{"guides/install.html", "../"},
		{"a/b/c.html", "../../"},
	}
	for _, tt := range tests {
		if got := rootPrefix(tt.path); got != tt.want {
			t.Errorf("rootPrefix(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestBuildNavGroupsConsecutiveCaptions(t *testing.T) {
	tree := &content.Tree{Nodes: []content.Node{
		{Ref: "usage", Kind: content.KindPage, Title: "Usage", Caption: "Guides"},
		{Ref: "recipes", Kind: content.KindPage, Title: "Recipes", Caption: "Guides"},
		{Ref: "lumache", Kind: content.KindModule, Title: "lumache", Caption: "Reference"},
		{Ref: "changelog", Kind: content.KindPage, Title: "Changelog"},
	}}

	nav := buildNav(tree)
	if len(nav) != 3 {
		t.Fatalf("groups = %d, want 3", len(nav))
	}
	if nav[0].Caption != "Guides" || len(nav[0].Items) != 2 {
		t.Errorf("group 0 = %q with %d items", nav[0].Caption, len(nav[0].Items))
	}
	if nav[1].Caption != "Reference" || len(nav[1].Items) != 1 {
		t.Errorf("group 1 = %q with %d items", nav[1].Caption, len(nav[1].Items))
	}
	if nav[2].Caption != "" {
		t.Errorf("group 2 caption = %q, want uncaptioned", nav[2].Caption)
	}
	if nav[0].Items[0].Href != "usage.html" {
		t.Errorf("href = %q", nav[0].Items[0].Href)
	}
}

func TestBuildGenIndex(t *testing.T) {
	tree := &content.Tree{Nodes: []content.Node{
		{Ref: "lumache", Kind: content.KindModule, Title: "lumache"},
		{Ref: "usage", Kind: content.KindPage, Title: "Usage"},
	}}
	docs := map[string]*ModuleDoc{
		"lumache": {
			Name: "lumache",
			Members: []MemberDoc{
				{Kind: "class", Name: "Pantry", QualName: "Pantry", Anchor: "lumache.Pantry", Members: []MemberDoc{
					{Kind: "method", Name: "__init__", QualName: "Pantry.__init__", Anchor: "lumache.Pantry.__init__"},
					{Kind: "method", Name: "add", QualName: "Pantry.add", Anchor: "lumache.Pantry.add"},
				}},
				{Kind: "function", Name: "get_random_ingredients", QualName: "get_random_ingredients", Anchor: "lumache.get_random_ingredients"},
			},
		},
	}

	letters := buildGenIndex(tree, docs)
	if len(letters) != 4 {
		t.Fatalf("letters = %d, want Symbols, A, G, P", len(letters))
	}
	if letters[0].Letter != "Symbols" {
		t.Errorf("first bucket = %q, Symbols must lead", letters[0].Letter)
	}
	if letters[1].Letter != "A" || letters[2].Letter != "G" || letters[3].Letter != "P" {
		t.Errorf("letter order = %q %q %q", letters[1].Letter, letters[2].Letter, letters[3].Letter)
	}

	init := letters[0].Entries[0]
	if init.Qualifier != "lumache.Pantry" {
		t.Errorf("nested qualifier = %q, want class path", init.Qualifier)
	}
	if init.Href != "lumache.html#lumache.Pantry.__init__" {
		t.Errorf("nested href = %q", init.Href)
	}

	pantry := letters[3].Entries[0]
	if pantry.Qualifier != "lumache" || pantry.Kind != "class" {
		t.Errorf("top-level entry = %+v", pantry)
	}
}

func TestBuildGenIndexSkipsStubs(t *testing.T) {
	tree := &content.Tree{Nodes: []content.Node{
		{Ref: "broken", Kind: content.KindModule, Title: "broken"},
	}}
	docs := map[string]*ModuleDoc{
		"broken": {Name: "broken", ImportError: "module not found"},
	}

	if letters := buildGenIndex(tree, docs); len(letters) != 0 {
		t.Errorf("stub module produced index entries: %+v", letters)
	}
}

func TestIndexLetter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pantry", "P"},
		{"add", "A"},
		{"__init__", "Symbols"},
		{"", "Symbols"},
	}
	for _, tt := range tests {
		if got := indexLetter(tt.in); got != tt.want {
			t.Errorf("indexLetter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildModIndex(t *testing.T) {
	tree := &content.Tree{Nodes: []content.Node{
		{Ref: "zest", Kind: content.KindModule, Title: "zest"},
		{Ref: "usage", Kind: content.KindPage, Title: "Usage"},
		{Ref: "lumache", Kind: content.KindModule, Title: "lumache"},
	}}
	docs := map[string]*ModuleDoc{
		"lumache": {Name: "lumache", Synopsis: "Cooking library."},
		"zest":    {Name: "zest", ImportError: "syntax error"},
	}

	mods := buildModIndex(tree, docs)
	if len(mods) != 2 {
		t.Fatalf("entries = %d, want modules only", len(mods))
	}
	if mods[0].Name != "lumache" || mods[1].Name != "zest" {
		t.Errorf("order = [%s %s], want alphabetical", mods[0].Name, mods[1].Name)
	}
	if mods[0].Synopsis != "Cooking library." || mods[0].Stub {
		t.Errorf("lumache entry = %+v", mods[0])
	}
	if !mods[1].Stub {
		t.Error("zest must be marked as stub")
	}
}

func TestStubModuleDoc(t *testing.T) {
	md := stubModuleDoc(pyscan.ImportFailure{Module: "zest", Err: errFake("no such file")})
	if md.Name != "zest" {
		t.Errorf("name = %q", md.Name)
	}
	if md.ImportError != "no such file" {
		t.Errorf("import error = %q", md.ImportError)
	}
	if len(md.Members) != 0 {
		t.Error("stub must carry no members")
	}
}

func TestBuildModuleDoc(t *testing.T) {
	parser, err := docstring.NewParser([]string{"numpy", "google"})
	if err != nil {
		t.Fatal(err)
	}

	mod := &pyscan.Module{
		Name: "lumache",
		Doc:  "Lumache - Python library for cooks and food lovers.\n\nA longer description.",
		Members: []pyscan.Member{
			{
				Kind: pyscan.KindFunction,
				Name: "valid_isbn10",
				Params: []pyscan.Param{
					{Name: "code", Annotation: "str"},
					{Name: "strict", Annotation: "bool", Default: "False"},
				},
				Returns: "bool",
				Doc: "Check ISBN-10 validity.\n\n" +
					"Parameters\n----------\n" +
					"code : str\n    The candidate code.\n" +
					"strict : bool\n    Reject malformed separators.\n\n" +
					"Returns\n-------\nbool\n    True for a valid code.",
			},
			{
				Kind: pyscan.KindClass,
				Name: "Pantry",
				Doc:  "Storage for ingredients.",
				Members: []pyscan.Member{
					{Kind: pyscan.KindMethod, Name: "add", Params: []pyscan.Param{{Name: "item", Annotation: "str"}}},
				},
			},
			{Kind: pyscan.KindFunction, Name: "stub"},
		},
	}

	md, err := buildModuleDoc(parser, mod)
	if err != nil {
		t.Fatalf("buildModuleDoc() error = %v", err)
	}

	if md.Synopsis != "Lumache - Python library for cooks and food lovers." {
		t.Errorf("synopsis = %q", md.Synopsis)
	}
	if !strings.Contains(string(md.Doc.Body), "longer description") {
		t.Errorf("module body = %q", md.Doc.Body)
	}

	fn := md.Members[0]
	if fn.Anchor != "lumache.valid_isbn10" {
		t.Errorf("anchor = %q", fn.Anchor)
	}
	if fn.Signature != "(code: str, strict: bool = False) -> bool" {
		t.Errorf("signature = %q", fn.Signature)
	}
	if len(fn.Doc.Params) != 2 || fn.Doc.Params[0].Name != "code" || fn.Doc.Params[1].Desc != "Reject malformed separators." {
		t.Errorf("params = %+v", fn.Doc.Params)
	}
	if fn.Doc.Returns == nil || fn.Doc.Returns.Type != "bool" {
		t.Errorf("returns = %+v", fn.Doc.Returns)
	}

	cls := md.Members[1]
	if len(cls.Members) != 1 {
		t.Fatalf("class members = %d", len(cls.Members))
	}
	method := cls.Members[0]
	if method.QualName != "Pantry.add" || method.Anchor != "lumache.Pantry.add" {
		t.Errorf("method qual = %q anchor = %q", method.QualName, method.Anchor)
	}

	if !md.Members[2].Undocumented {
		t.Error("member without docstring must be flagged undocumented")
	}
}

func TestSearchExcerpt(t *testing.T) {
	got := searchExcerpt("<p>Hello <strong>world</strong>, this is   prose.</p>")
	if got != "Hello world , this is prose." {
		t.Errorf("searchExcerpt() = %q", got)
	}

	long := "<p>" + strings.Repeat("word ", 100) + "</p>"
	if got := searchExcerpt(long); len(got) != 200 {
		t.Errorf("excerpt length = %d, want capped at 200", len(got))
	}
}

func TestBuildSearchIndex(t *testing.T) {
	s := &Site{Documents: []*Document{
		{Kind: DocIndex, Path: "index.html", Title: "Home"},
		{Kind: DocModule, Path: "lumache.html", Module: &ModuleDoc{
			Name:     "lumache",
			Synopsis: "Cooking library.",
			Members: []MemberDoc{
				{Kind: "function", Name: "get_random_ingredients", QualName: "get_random_ingredients",
					Anchor: "lumache.get_random_ingredients", Doc: RenderedDoc{Summary: "Return ingredients."}},
			},
		}},
		{Kind: DocPage, Path: "usage.html", Title: "Usage", Content: template.HTML("<h1>Usage</h1><p>Install it.</p>")},
		{Kind: DocGenIndex, Path: "genindex.html", Title: "Index"},
		{Kind: DocSearch, Path: "search.html", Title: "Search"},
	}}

	docs := buildSearchIndex(s)
	if len(docs) != 3 {
		t.Fatalf("search docs = %d, want module, member and page", len(docs))
	}
	if docs[0].Title != "lumache" || docs[0].Kind != "module" {
		t.Errorf("module doc = %+v", docs[0])
	}
	if docs[1].Title != "lumache.get_random_ingredients" || docs[1].Href != "lumache.html#lumache.get_random_ingredients" {
		t.Errorf("member doc = %+v", docs[1])
	}
	if docs[2].Kind != "page" || !strings.Contains(docs[2].Text, "Install it.") {
		t.Errorf("page doc = %+v", docs[2])
	}
}

// errFake builds a plain error from a string for fixture literals.
type errFake string

func (e errFake) Error() string { return string(e) }
