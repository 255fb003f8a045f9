package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

type container struct {
	RootFiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type opfPackage struct {
	Manifest struct {
		Items []struct {
			ID   string `xml:"id,attr"`
			Href string `xml:"href,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// loadEPUB extracts one Page per spine entry, in reading order, by
// following the standard container.xml -> OPF manifest/spine chain and
// stripping markup from each XHTML chapter.
func loadEPUB(path_ string) ([]Page, error) {
	zr, err := zip.OpenReader(path_)
	if err != nil {
		return nil, fmt.Errorf("opening epub: %w", err)
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	opfPath, err := findOPFPath(files)
	if err != nil {
		return nil, err
	}

	pkg, err := readOPF(files, opfPath)
	if err != nil {
		return nil, err
	}

	hrefByID := make(map[string]string, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		hrefByID[item.ID] = item.Href
	}

	base := path.Dir(opfPath)
	pages := make([]Page, 0, len(pkg.Spine.ItemRefs))
	for i, ref := range pkg.Spine.ItemRefs {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}
		chapterPath := path.Join(base, href)

		text, err := readChapterText(files, chapterPath)
		if err != nil {
			pages = append(pages, Page{PageNumber: i + 1, Metadata: map[string]string{"source_file": chapterPath}})
			continue
		}
		pages = append(pages, Page{Text: text, PageNumber: i + 1, Metadata: map[string]string{"source_file": chapterPath}})
	}

	return pages, nil
}

func findOPFPath(files map[string]*zip.File) (string, error) {
	cf, ok := files["META-INF/container.xml"]
	if !ok {
		return "", fmt.Errorf("epub missing META-INF/container.xml")
	}

	rc, err := cf.Open()
	if err != nil {
		return "", fmt.Errorf("reading container.xml: %w", err)
	}
	defer rc.Close()

	var c container
	if err := xml.NewDecoder(rc).Decode(&c); err != nil {
		return "", fmt.Errorf("parsing container.xml: %w", err)
	}
	if len(c.RootFiles) == 0 {
		return "", fmt.Errorf("container.xml lists no rootfile")
	}
	return c.RootFiles[0].FullPath, nil
}

func readOPF(files map[string]*zip.File, opfPath string) (*opfPackage, error) {
	f, ok := files[opfPath]
	if !ok {
		return nil, fmt.Errorf("epub missing opf file %q", opfPath)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("reading opf: %w", err)
	}
	defer rc.Close()

	var pkg opfPackage
	if err := xml.NewDecoder(rc).Decode(&pkg); err != nil {
		return nil, fmt.Errorf("parsing opf: %w", err)
	}
	return &pkg, nil
}

func readChapterText(files map[string]*zip.File, chapterPath string) (string, error) {
	f, ok := files[chapterPath]
	if !ok {
		return "", fmt.Errorf("epub missing chapter file %q", chapterPath)
	}

	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	text := htmlTagPattern.ReplaceAllString(string(raw), " ")
	text = strings.Join(strings.Fields(text), " ")
	return text, nil
}
