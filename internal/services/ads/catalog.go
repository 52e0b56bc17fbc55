package ads

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"MarketWire/internal/domain/models"
)

// Taxonomy keys in fixed catalog order.
const (
	GroupInvestmentPlatforms = "investment_platforms"
	GroupTradingTools        = "trading_tools"
	GroupFinancialEducation  = "financial_education"
	GroupFinancialServices   = "financial_services"
	GroupCryptocurrency      = "cryptocurrency"
	GroupRealEstate          = "real_estate"
)

// Group is one taxonomy bucket with its ordered ads.
type Group struct {
	Key string
	Ads []models.AdCandidate
}

// Catalog is the static ad catalog: ordered groups, each an ordered list
// of candidates. Immutable after construction.
type Catalog struct {
	groups []Group
}

func NewCatalog(groups []Group) *Catalog {
	return &Catalog{groups: groups}
}

// Entry pairs an ad with the taxonomy key of its group.
type Entry struct {
	Group string
	Ad    models.AdCandidate
}

// All returns every ad in catalog order.
func (c *Catalog) All() []Entry {
	out := make([]Entry, 0, c.Len())
	for _, g := range c.groups {
		for _, ad := range g.Ads {
			out = append(out, Entry{Group: g.Key, Ad: ad})
		}
	}
	return out
}

func (c *Catalog) Len() int {
	n := 0
	for _, g := range c.groups {
		n += len(g.Ads)
	}
	return n
}

// FirstOf returns the first ad of a group, used by the degraded-mode default list.
func (c *Catalog) FirstOf(key string) (models.AdCandidate, bool) {
	for _, g := range c.groups {
		if g.Key == key && len(g.Ads) > 0 {
			return g.Ads[0], true
		}
	}
	return models.AdCandidate{}, false
}

type catalogFile struct {
	Groups []struct {
		Key string `yaml:"key"`
		Ads []struct {
			ID                string   `yaml:"id"`
			Title             string   `yaml:"title"`
			Description       string   `yaml:"description"`
			Category          string   `yaml:"category"`
			TargetAudience    string   `yaml:"target_audience"`
			RelevanceKeywords []string `yaml:"relevance_keywords"`
			CTA               string   `yaml:"cta"`
			Advertiser        string   `yaml:"advertiser"`
		} `yaml:"ads"`
	} `yaml:"groups"`
}

// LoadCatalog reads a YAML catalog file. Group and ad order in the file
// is the catalog order.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(b, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	groups := make([]Group, 0, len(cf.Groups))
	for _, g := range cf.Groups {
		if g.Key == "" {
			return nil, fmt.Errorf("catalog group without key")
		}
		grp := Group{Key: g.Key}
		for _, a := range g.Ads {
			if a.Title == "" || a.Category == "" {
				return nil, fmt.Errorf("catalog ad in %s missing title or category", g.Key)
			}
			if len(a.RelevanceKeywords) == 0 {
				return nil, fmt.Errorf("catalog ad %q has no relevance keywords", a.Title)
			}
			grp.Ads = append(grp.Ads, models.AdCandidate{
				ID:                a.ID,
				Title:             a.Title,
				Description:       a.Description,
				Category:          a.Category,
				TargetAudience:    a.TargetAudience,
				RelevanceKeywords: a.RelevanceKeywords,
				CTA:               a.CTA,
				Advertiser:        a.Advertiser,
			})
		}
		groups = append(groups, grp)
	}
	return NewCatalog(groups), nil
}

// DefaultCatalog returns the built-in ten-ad catalog, used when no
// catalog file is configured.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Group{
		{Key: GroupInvestmentPlatforms, Ads: []models.AdCandidate{
			{
				ID:                "investsmart",
				Title:             "Smart Investing Platform - InvestSmart",
				Description:       "AI-driven portfolio management and real-time market analysis for smarter investing.",
				Category:          "investment_platform",
				TargetAudience:    "individual investor",
				RelevanceKeywords: []string{"investing", "portfolio", "stocks", "analysis"},
				CTA:               "Start free trial",
				Advertiser:        "InvestSmart Inc.",
			},
			{
				ID:                "wealthbot",
				Title:             "Robo Advisor - WealthBot",
				Description:       "Expert-grade wealth management on autopilot. Start from $100.",
				Category:          "robo_advisor",
				TargetAudience:    "beginner investor",
				RelevanceKeywords: []string{"wealth management", "robo advisor", "automated investing"},
				CTA:               "Get a portfolio checkup",
				Advertiser:        "WealthBot Co.",
			},
		}},
		{Key: GroupTradingTools, Ads: []models.AdCandidate{
			{
				ID:                "trademax",
				Title:             "Pro Trading Platform - TradeMax",
				Description:       "Real-time charts, technical analysis tools and algorithmic trading in one place.",
				Category:          "trading_platform",
				TargetAudience:    "professional trader",
				RelevanceKeywords: []string{"trading", "charts", "technical analysis", "algorithm"},
				CTA:               "30-day free trial",
				Advertiser:        "TradeMax Ltd.",
			},
			{
				ID:                "quicktrade",
				Title:             "Mobile Trading App - QuickTrade",
				Description:       "Trade anywhere with real-time alerts and one-tap orders.",
				Category:          "mobile_trading",
				TargetAudience:    "mobile trader",
				RelevanceKeywords: []string{"mobile", "real-time", "alerts", "fast orders"},
				CTA:               "Download the app",
				Advertiser:        "QuickTrade App",
			},
		}},
		{Key: GroupFinancialEducation, Ads: []models.AdCandidate{
			{
				ID:                "investedu",
				Title:             "Investing Master Class - InvestEdu",
				Description:       "From basics to advanced strategy, a structured path to better investing.",
				Category:          "education",
				TargetAudience:    "investing learner",
				RelevanceKeywords: []string{"education", "learning", "investing basics", "strategy"},
				CTA:               "Watch a free lesson",
				Advertiser:        "InvestEdu Academy",
			},
			{
				ID:                "econews",
				Title:             "Premium Market News - EcoNews+",
				Description:       "Stay ahead with expert analysis, exclusive reports and real-time alerts.",
				Category:          "news_service",
				TargetAudience:    "information seeker",
				RelevanceKeywords: []string{"news", "analysis", "reports", "insights"},
				CTA:               "Subscribe to premium",
				Advertiser:        "EcoNews Media",
			},
		}},
		{Key: GroupFinancialServices, Ads: []models.AdCandidate{
			{
				ID:                "investloan",
				Title:             "Investor Lending - InvestLoan",
				Description:       "Unlock opportunities with stock-collateral loans at competitive rates.",
				Category:          "lending",
				TargetAudience:    "leveraged investor",
				RelevanceKeywords: []string{"loans", "collateral", "leverage", "capital"},
				CTA:               "Request a consultation",
				Advertiser:        "InvestLoan Bank",
			},
			{
				ID:                "taxsmart",
				Title:             "Tax Optimization - TaxSmart",
				Description:       "Cut the tax drag on your returns with specialist consulting.",
				Category:          "tax_service",
				TargetAudience:    "high-income investor",
				RelevanceKeywords: []string{"tax", "savings", "optimization", "consulting"},
				CTA:               "Free tax consultation",
				Advertiser:        "TaxSmart Consulting",
			},
		}},
		{Key: GroupCryptocurrency, Ads: []models.AdCandidate{
			{
				ID:                "cryptomax",
				Title:             "Crypto Exchange - CryptoMax",
				Description:       "Safe, fast crypto trading with low fees across major coins.",
				Category:          "crypto_exchange",
				TargetAudience:    "crypto investor",
				RelevanceKeywords: []string{"cryptocurrency", "bitcoin", "blockchain", "digital assets"},
				CTA:               "Open an account",
				Advertiser:        "CryptoMax Exchange",
			},
		}},
		{Key: GroupRealEstate, Ads: []models.AdCandidate{
			{
				ID:                "realtyinvest",
				Title:             "Real Estate Investing - RealtyInvest",
				Description:       "Start small in expert-curated income properties.",
				Category:          "real_estate",
				TargetAudience:    "real estate investor",
				RelevanceKeywords: []string{"real estate", "investing", "income property", "fractional investing"},
				CTA:               "Browse offerings",
				Advertiser:        "RealtyInvest Co.",
			},
		}},
	})
}
