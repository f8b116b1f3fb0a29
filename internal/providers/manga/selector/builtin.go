package selector

func Builtins() []Config {
	return []Config{
		{
			Key:     "sushiscan",
			Name:    "SushiScan",
			BaseURL: "https://sushiscan.net",
			Search: SearchSelectors{
				Input:   `input[type="search"]`,
				Param:   "s",
				Results: ".manga-item, .series-item",
				Title:   "h3, .title",
				Link:    "a",
				Image:   "img",
			},
			Chapters: ChapterSelectors{
				List:  `.chapter-item, li[class*="chapter"]`,
				Title: ".chapter-title, .title, a",
				Link:  "a",
			},
			Reader: ReaderSelectors{Images: []string{
				"#readerarea img",
				".reading-content img",
				".reader img",
				".chapter-content img",
				".pages img",
			}},
			Prepare: PrepareConfig{
				LazyAttributes:   []string{"data-src", "data-lazy-src"},
				ReadingModeQuery: "style=list",
			},
		},
		{
			Key:            "mangakakalot",
			Name:           "MangaKakalot",
			BaseURL:        "https://mangakakalot.com",
			SearchTemplate: "https://mangakakalot.com/search/story/" + QueryPlaceholder,
			Search: SearchSelectors{
				Input:   `input[type="search"], #search_story`,
				Results: ".story_item",
				Title:   "h3 a",
				Link:    "h3 a",
				Image:   "img",
			},
			Chapters: ChapterSelectors{
				List:  ".chapter-list .row",
				Title: "span a",
				Link:  "span a",
			},
			Reader: ReaderSelectors{Images: []string{
				".container-chapter-reader img",
				"#vungdoc img",
				".reader-content img",
			}},
			Prepare: PrepareConfig{
				LazyAttributes: []string{"data-src"},
			},
		},
		{
			Key:     "mangadx",
			Name:    "MangaDx",
			BaseURL: "https://mangadx.org",
			Search: SearchSelectors{
				Input:   `input[type="search"], input[placeholder*="search"], input[placeholder*="Search"]`,
				Param:   "q",
				Results: ".manga-item, .search-result, .item",
				Title:   "h3, h2, .title, .name",
				Link:    "a",
				Image:   "img",
			},
			Chapters: ChapterSelectors{
				List:  `.chapter-item, .episode-item, li[class*="chapter"]`,
				Title: ".chapter-title, .title, a",
				Link:  "a",
			},
			Reader: ReaderSelectors{Images: []string{
				".reading-content img",
				"#readerarea img",
				".reader img",
				".chapter-content img",
				".entry-content img",
			}},
			Prepare: PrepareConfig{
				LazyAttributes:   []string{"data-src", "data-lazy-src"},
				ReadingModeQuery: "style=list",
			},
		},
	}
}
