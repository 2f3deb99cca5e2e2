package util

func GetAppName() string {
	return "DocSign"
}

func GetUserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return GetAppName() + "-cli/" + version
}
