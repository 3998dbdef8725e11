package config

import (
	"time"

	"github.com/spf13/viper"
)

// Crawl defaults
const (
	DefaultCutoff         = "2021-01-01"
	DefaultExcerptLength  = 500
	DefaultOrgConcurrency = 1
)

// Fetcher defaults
const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultRequestTimeout    = 10 * time.Second
	DefaultPageLoadTimeout   = 30 * time.Second
	DefaultScrollPause       = 2 * time.Second
	DefaultMaxScrolls        = 50
	DefaultScrollMaxAttempts = 3
	DefaultScrollInitialWait = 4 * time.Second
	DefaultScrollMaxWait     = 10 * time.Second
	DefaultScrollMultiplier  = 2.0
	DefaultWindowWidth       = 1920
	DefaultWindowHeight      = 1080
)

// Storage defaults
const (
	DefaultResultsJSON = "partnership_articles.json"
	DefaultResultsCSV  = "partnership_articles.csv"
	DefaultSnapshotDir = "webpage_content"
	DefaultURLDir      = "url_files"
)

// State defaults
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"

	PolicyMark  = "mark"
	PolicyRetry = "retry"

	DefaultStateDriver   = DriverSQLite
	DefaultStateDSN      = "data/state.db"
	DefaultFailurePolicy = PolicyMark
	DefaultRedisAddress  = "localhost:6379"
	DefaultRedisKey      = "newsroom:processed_urls"
)

// Server defaults
const (
	DefaultServerAddress      = ":8060"
	DefaultServerReadTimeout  = 15 * time.Second
	DefaultServerWriteTimeout = 15 * time.Second
	DefaultElasticsearchIndex = "partnership_articles"
)

// DefaultTerms is the built-in list of search terms.
var DefaultTerms = []string{
	"partnership", "integration", "data sharing",
	"data platform", "cloud platform", "data lake",
	"data warehouse", "collaboration", "joint solution",
	"strategic alliance", "SAP BDC", "Business Data Cloud",
	"SAP Databricks",
}

// SetDefaults registers default configuration values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.debug", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.output_paths", []string{"stdout"})
	v.SetDefault("logger.service", "newsroom-crawler")

	v.SetDefault("crawl.terms", DefaultTerms)
	v.SetDefault("crawl.cutoff", DefaultCutoff)
	v.SetDefault("crawl.excerpt_length", DefaultExcerptLength)
	v.SetDefault("crawl.org_concurrency", DefaultOrgConcurrency)
	v.SetDefault("crawl.organizations", []string{})

	v.SetDefault("fetcher.user_agent", DefaultUserAgent)
	v.SetDefault("fetcher.request_timeout", DefaultRequestTimeout)
	v.SetDefault("fetcher.page_load_timeout", DefaultPageLoadTimeout)
	v.SetDefault("fetcher.scroll_pause", DefaultScrollPause)
	v.SetDefault("fetcher.max_scrolls", DefaultMaxScrolls)
	v.SetDefault("fetcher.render_seeds", true)
	v.SetDefault("fetcher.requests_per_second", 0)
	v.SetDefault("fetcher.burst", 1)
	v.SetDefault("fetcher.scroll_retry.max_attempts", DefaultScrollMaxAttempts)
	v.SetDefault("fetcher.scroll_retry.initial_delay", DefaultScrollInitialWait)
	v.SetDefault("fetcher.scroll_retry.max_delay", DefaultScrollMaxWait)
	v.SetDefault("fetcher.scroll_retry.multiplier", DefaultScrollMultiplier)
	v.SetDefault("fetcher.chrome.headless", true)
	v.SetDefault("fetcher.chrome.exec_path", "")
	v.SetDefault("fetcher.chrome.window_width", DefaultWindowWidth)
	v.SetDefault("fetcher.chrome.window_height", DefaultWindowHeight)

	v.SetDefault("storage.results_json", DefaultResultsJSON)
	v.SetDefault("storage.results_csv", DefaultResultsCSV)
	v.SetDefault("storage.snapshot_dir", DefaultSnapshotDir)
	v.SetDefault("storage.url_dir", DefaultURLDir)

	v.SetDefault("state.driver", DefaultStateDriver)
	v.SetDefault("state.dsn", DefaultStateDSN)
	v.SetDefault("state.failure_policy", DefaultFailurePolicy)
	v.SetDefault("state.redis.address", DefaultRedisAddress)
	v.SetDefault("state.redis.password", "")
	v.SetDefault("state.redis.db", 0)
	v.SetDefault("state.redis.key", DefaultRedisKey)

	v.SetDefault("elasticsearch.enabled", false)
	v.SetDefault("elasticsearch.addresses", []string{"http://127.0.0.1:9200"})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.index", DefaultElasticsearchIndex)

	v.SetDefault("server.address", DefaultServerAddress)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.jwt_secret", "")

	v.SetDefault("schedule.cron", "")
}

// DefaultRegistry returns the built-in organization registry.
func DefaultRegistry() []Organization {
	return []Organization{
		{Name: "SAP", Seeds: []string{
			"https://news.sap.com/",
			"https://news.sap.com/topics/business-technology-platform/",
			"https://news.sap.com/topics/partnerships/",
			"https://www.sap.com/about/company/innovation.html",
		}},
		{Name: "Salesforce", Seeds: []string{
			"https://www.salesforce.com/news/",
			"https://www.salesforce.com/company/news-press/press-releases/",
			"https://www.salesforce.com/blog/category/integration/",
		}},
		{Name: "Snowflake", Seeds: []string{
			"https://www.snowflake.com/news-and-events/",
			"https://www.snowflake.com/blog/",
			"https://investors.snowflake.com/news/",
			"https://www.snowflake.com/blog/category/partners/",
		}},
		{Name: "Databricks", Seeds: []string{
			"https://www.databricks.com/blog",
			"https://www.databricks.com/company/newsroom",
			"https://www.databricks.com/blog/category/engineering",
			"https://www.databricks.com/blog/category/product",
		}},
		{Name: "Microsoft", Seeds: []string{
			"https://news.microsoft.com/",
			"https://azure.microsoft.com/en-us/blog/",
			"https://techcommunity.microsoft.com/t5/azure-data-blog/bg-p/AzureDataBlog",
		}},
		{Name: "Oracle", Seeds: []string{
			"https://www.oracle.com/news/",
			"https://www.oracle.com/news/announcement/",
			"https://blogs.oracle.com/cloud-infrastructure/",
		}},
		{Name: "IBM", Seeds: []string{
			"https://newsroom.ibm.com/",
			"https://www.ibm.com/blog/",
			"https://www.ibm.com/cloud/blog/",
		}},
		{Name: "Teradata", Seeds: []string{
			"https://www.teradata.com/Press-Releases",
			"https://www.teradata.com/Blogs",
			"https://www.teradata.com/About-Us/Newsroom",
		}},
		{Name: "Cloudera", Seeds: []string{
			"https://www.cloudera.com/about/news-and-blogs.html",
			"https://blog.cloudera.com/",
			"https://www.cloudera.com/about/news-and-press.html",
		}},
		{Name: "MongoDB", Seeds: []string{
			"https://www.mongodb.com/newsroom",
			"https://www.mongodb.com/blog",
			"https://www.mongodb.com/blog/channel/company",
		}},
		{Name: "Collibra", Seeds: []string{
			"https://www.collibra.com/news",
			"https://www.collibra.com/blog",
			"https://www.collibra.com/press-releases",
		}},
		{Name: "Confluent", Seeds: []string{
			"https://www.confluent.io/blog/",
			"https://www.confluent.io/news/",
			"https://www.confluent.io/press-releases/",
		}},
		{Name: "DataRobot", Seeds: []string{
			"https://www.datarobot.com/news/",
			"https://www.datarobot.com/blog/",
			"https://www.datarobot.com/press-releases/",
		}},
		{Name: "Google Cloud", Seeds: []string{
			"https://cloud.google.com/blog",
			"https://cloud.google.com/news",
			"https://cloud.google.com/blog/products/ai-machine-learning",
		}},
		{Name: "Palantir", Seeds: []string{
			"https://www.palantir.com/news/",
			"https://www.palantir.com/blog/",
			"https://investors.palantir.com/news-releases",
		}},
		{Name: "Informatica", Seeds: []string{
			"https://www.informatica.com/news.html",
			"https://www.informatica.com/blogs.html",
			"https://www.informatica.com/about-us/newsroom.html",
		}},
		{Name: "ServiceNow", Seeds: []string{
			"https://www.servicenow.com/newsroom.html",
			"https://www.servicenow.com/blog.html",
			"https://www.servicenow.com/community/tech-tips-and-tricks.html",
		}},
		{Name: "NASDAQ", Seeds: []string{
			"https://www.nasdaq.com/news-and-insights/tech",
			"https://www.nasdaq.com/news-and-insights/company-news",
			"https://www.nasdaq.com/news-and-insights/market-movers",
		}},
		{Name: "NYSE", Seeds: []string{
			"https://www.nyse.com/news-events",
			"https://www.nyse.com/technology",
			"https://www.nyse.com/ipo-center/news",
		}},
		{Name: "DAX", Seeds: []string{
			"https://www.deutsche-boerse.com/dbg-en/news-views",
			"https://www.deutsche-boerse.com/dbg-en/technology",
			"https://www.deutsche-boerse.com/dbg-en/company-news",
		}},
		{Name: "Reuters", Seeds: []string{
			"https://www.reuters.com/technology/",
			"https://www.reuters.com/markets/",
			"https://www.reuters.com/companies/",
		}},
		{Name: "Bloomberg", Seeds: []string{
			"https://www.bloomberg.com/technology",
			"https://www.bloomberg.com/markets",
			"https://www.bloomberg.com/companies",
		}},
		{Name: "Financial Times", Seeds: []string{
			"https://www.ft.com/technology",
			"https://www.ft.com/markets",
			"https://www.ft.com/companies",
		}},
	}
}
