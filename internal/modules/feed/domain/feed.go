package domain

// ContentType is the HTTP content type of a rendered feed
func (x Format) ContentType() string {
	switch x {
	case FormatAtom:
		return "application/atom+xml; charset=utf-8"
	case FormatJson:
		return "application/feed+json; charset=utf-8"
	default:
		return "application/rss+xml; charset=utf-8"
	}
}

// Path is where the HTTP server publishes the favorites feed in this format
func (x Format) Path() string {
	return "/" + x.String() + "/favorites"
}
