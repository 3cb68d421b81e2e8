package service

// BookFeatures are the literary features extracted from a volume for the
// recommendation pipeline. Derived fresh per request, never persisted.
type BookFeatures struct {
	Title         string
	Authors       []string
	Description   string
	Categories    []string
	PublishedYear string
	Language      string
	PageCount     int
}

// ExtractBookFeatures pulls the pipeline-relevant fields out of a volume.
func ExtractBookFeatures(volume *Volume) BookFeatures {
	info := volume.VolumeInfo

	year := ""
	if len(info.PublishedDate) >= 4 {
		year = info.PublishedDate[:4]
	}

	language := info.Language
	if language == "" {
		language = "en"
	}

	return BookFeatures{
		Title:         info.Title,
		Authors:       info.Authors,
		Description:   info.Description,
		Categories:    info.Categories,
		PublishedYear: year,
		Language:      language,
		PageCount:     info.PageCount,
	}
}
