package ingest

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"sort"
	"strings"
)

// containerXML is the EPUB META-INF/container.xml pointing at the package
// document.
type containerXML struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// packageDoc is the subset of the OPF package document needed to order
// chapters.
type packageDoc struct {
	Manifest struct {
		Items []manifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		Refs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type manifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// ExtractEPUB unpacks an EPUB and returns its chapter text in spine order.
// Books without a readable package document fall back to every HTML entry in
// path order.
func ExtractEPUB(epubPath string) (string, error) {
	r, err := zip.OpenReader(epubPath)
	if err != nil {
		return "", &IngestError{Path: epubPath, Format: ".epub", Message: "opening archive", Cause: err}
	}
	defer r.Close()

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[path.Clean(f.Name)] = f
	}

	chapters, err := spineChapters(files)
	if err != nil {
		chapters = htmlEntries(files)
	}
	if len(chapters) == 0 {
		return "", &IngestError{Path: epubPath, Format: ".epub", Message: "no chapter documents found"}
	}

	var parts []string
	for _, name := range chapters {
		f, ok := files[name]
		if !ok {
			continue
		}
		content, err := readZipFile(f)
		if err != nil {
			return "", &IngestError{Path: epubPath, Format: ".epub", Message: "reading " + name, Cause: err}
		}
		text, err := ExtractHTML(content)
		if err != nil {
			return "", &IngestError{Path: epubPath, Format: ".epub", Message: "extracting " + name, Cause: err}
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// spineChapters resolves the reading-order chapter paths from the package
// document.
func spineChapters(files map[string]*zip.File) ([]string, error) {
	cf, ok := files["META-INF/container.xml"]
	if !ok {
		return nil, &IngestError{Format: ".epub", Message: "missing container.xml"}
	}
	raw, err := readZipFile(cf)
	if err != nil {
		return nil, err
	}

	var container containerXML
	if err := xml.Unmarshal([]byte(raw), &container); err != nil {
		return nil, err
	}
	if len(container.Rootfiles) == 0 {
		return nil, &IngestError{Format: ".epub", Message: "container.xml names no rootfile"}
	}

	opfPath := path.Clean(container.Rootfiles[0].FullPath)
	opfFile, ok := files[opfPath]
	if !ok {
		return nil, &IngestError{Format: ".epub", Message: "missing package document " + opfPath}
	}
	rawOPF, err := readZipFile(opfFile)
	if err != nil {
		return nil, err
	}

	var pkg packageDoc
	if err := xml.Unmarshal([]byte(rawOPF), &pkg); err != nil {
		return nil, err
	}

	items := make(map[string]manifestItem, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		items[item.ID] = item
	}

	opfDir := path.Dir(opfPath)
	var chapters []string
	for _, ref := range pkg.Spine.Refs {
		item, ok := items[ref.IDRef]
		if !ok {
			continue
		}
		if item.MediaType != "application/xhtml+xml" && item.MediaType != "text/html" {
			continue
		}
		chapters = append(chapters, path.Clean(path.Join(opfDir, item.Href)))
	}
	return chapters, nil
}

// htmlEntries lists every HTML document in the archive, sorted by path.
func htmlEntries(files map[string]*zip.File) []string {
	var names []string
	for name := range files {
		switch strings.ToLower(path.Ext(name)) {
		case ".xhtml", ".html", ".htm":
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func readZipFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
