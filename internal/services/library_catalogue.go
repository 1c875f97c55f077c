package services

import (
	"net/url"

	"finwise/internal/core"
)

// BookCatalogue returns the starter wisdom library. Books carry no id; the
// store assigns one on first save.
func BookCatalogue() []core.Book {
	books := []core.Book{
		{
			Title:           "The Psychology of Money",
			Author:          "Morgan Housel",
			Genre:           core.GenreBusiness,
			SubGenre:        "Investment",
			Description:     "Timeless lessons on wealth, greed, and happiness. Understanding how people think about money.",
			Rating:          4.5,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Behavioral Finance", "Wealth Building", "Psychology"},
			PopularityScore: 9.2,
		},
		{
			Title:           "Rich Dad Poor Dad",
			Author:          "Robert T. Kiyosaki",
			Genre:           core.GenreBusiness,
			SubGenre:        "Investment",
			Description:     "What the rich teach their kids about money that the poor and middle class do not.",
			Rating:          4.3,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Financial Education", "Assets vs Liabilities", "Cash Flow"},
			PopularityScore: 8.8,
		},
		{
			Title:           "The Intelligent Investor",
			Author:          "Benjamin Graham",
			Genre:           core.GenreBusiness,
			SubGenre:        "Investment",
			Description:     "The definitive book on value investing, written by Warren Buffett's mentor.",
			Rating:          4.6,
			DifficultyLevel: core.LevelAdvanced,
			InvestmentLevel: core.LevelAdvanced,
			FinancialTopics: []string{"Value Investing", "Stock Analysis", "Risk Management"},
			PopularityScore: 9.0,
		},
		{
			Title:           "Think and Grow Rich",
			Author:          "Napoleon Hill",
			Genre:           core.GenreBusiness,
			SubGenre:        "Mindset",
			Description:     "Based on interviews with successful people, this book reveals the secrets to success.",
			Rating:          4.4,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Success Principles", "Mindset", "Goal Setting"},
			PopularityScore: 8.5,
		},
		{
			Title:           "The 7 Habits of Highly Effective People",
			Author:          "Stephen R. Covey",
			Genre:           core.GenreBusiness,
			SubGenre:        "Leadership",
			Description:     "A powerful framework for personal and professional effectiveness.",
			Rating:          4.5,
			DifficultyLevel: core.LevelIntermediate,
			InvestmentLevel: core.LevelIntermediate,
			FinancialTopics: []string{"Leadership", "Productivity", "Personal Development"},
			PopularityScore: 8.9,
		},
		{
			Title:           "Thinking, Fast and Slow",
			Author:          "Daniel Kahneman",
			Genre:           core.GenrePsychology,
			SubGenre:        "Behavioral Economics",
			Description:     "Nobel Prize winner explains the two systems that drive the way we think.",
			Rating:          4.4,
			DifficultyLevel: core.LevelIntermediate,
			InvestmentLevel: core.LevelIntermediate,
			FinancialTopics: []string{"Decision Making", "Cognitive Biases", "Behavioral Economics"},
			PopularityScore: 8.7,
		},
		{
			Title:           "The Power of Habit",
			Author:          "Charles Duhigg",
			Genre:           core.GenrePsychology,
			SubGenre:        "Behavioral Science",
			Description:     "Why we do what we do in life and business. Understanding habit formation.",
			Rating:          4.3,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Habit Formation", "Behavioral Change", "Productivity"},
			PopularityScore: 8.2,
		},
		{
			Title:           "Mindset: The New Psychology of Success",
			Author:          "Carol S. Dweck",
			Genre:           core.GenrePsychology,
			SubGenre:        "Growth Mindset",
			Description:     "How we can learn to fulfill our potential through the power of mindset.",
			Rating:          4.4,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Growth Mindset", "Learning", "Personal Development"},
			PopularityScore: 8.4,
		},
		{
			Title:           "Atomic Habits",
			Author:          "James Clear",
			Genre:           core.GenrePsychology,
			SubGenre:        "Behavioral Science",
			Description:     "Tiny changes, remarkable results. An easy and proven way to build good habits.",
			Rating:          4.6,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Habit Building", "Personal Development", "Productivity"},
			PopularityScore: 9.1,
		},
		{
			Title:           "The Subtle Art of Not Giving a F*ck",
			Author:          "Mark Manson",
			Genre:           core.GenrePsychology,
			SubGenre:        "Self-Help",
			Description:     "A counterintuitive approach to living a good life.",
			Rating:          4.2,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Mindset", "Life Philosophy", "Personal Growth"},
			PopularityScore: 8.0,
		},
		{
			Title:           "The 5 AM Club",
			Author:          "Robin Sharma",
			Genre:           core.GenreSelfHelp,
			SubGenre:        "Productivity",
			Description:     "Own your morning, elevate your life. The morning routine of successful people.",
			Rating:          4.3,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Morning Routine", "Productivity", "Personal Development"},
			PopularityScore: 8.3,
		},
		{
			Title:           "Deep Work",
			Author:          "Cal Newport",
			Genre:           core.GenreSelfHelp,
			SubGenre:        "Productivity",
			Description:     "Rules for focused success in a distracted world.",
			Rating:          4.4,
			DifficultyLevel: core.LevelIntermediate,
			InvestmentLevel: core.LevelIntermediate,
			FinancialTopics: []string{"Focus", "Productivity", "Career Development"},
			PopularityScore: 8.6,
		},
		{
			Title:           "The Compound Effect",
			Author:          "Darren Hardy",
			Genre:           core.GenreSelfHelp,
			SubGenre:        "Success",
			Description:     "Jumpstart your income, your life, your success.",
			Rating:          4.3,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Compound Effect", "Success Principles", "Personal Development"},
			PopularityScore: 8.1,
		},
		{
			Title:           "Who Moved My Cheese?",
			Author:          "Spencer Johnson",
			Genre:           core.GenreSelfHelp,
			SubGenre:        "Change Management",
			Description:     "An amazing way to deal with change in your work and in your life.",
			Rating:          4.1,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Change Management", "Adaptability", "Personal Growth"},
			PopularityScore: 7.8,
		},
		{
			Title:           "The Alchemist",
			Author:          "Paulo Coelho",
			Genre:           core.GenreSelfHelp,
			SubGenre:        "Inspiration",
			Description:     "A magical story about following your dreams and listening to your heart.",
			Rating:          4.5,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Dreams", "Personal Journey", "Inspiration"},
			PopularityScore: 8.7,
		},
		{
			Title:           "A Random Walk Down Wall Street",
			Author:          "Burton G. Malkiel",
			Genre:           core.GenreBusiness,
			SubGenre:        "Investment",
			Description:     "The time-tested strategy for successful investing.",
			Rating:          4.4,
			DifficultyLevel: core.LevelIntermediate,
			InvestmentLevel: core.LevelIntermediate,
			FinancialTopics: []string{"Index Investing", "Market Efficiency", "Portfolio Management"},
			PopularityScore: 8.5,
		},
		{
			Title:           "The Total Money Makeover",
			Author:          "Dave Ramsey",
			Genre:           core.GenreBusiness,
			SubGenre:        "Personal Finance",
			Description:     "A proven plan for financial fitness.",
			Rating:          4.3,
			DifficultyLevel: core.LevelBeginner,
			InvestmentLevel: core.LevelBeginner,
			FinancialTopics: []string{"Debt Management", "Budgeting", "Emergency Fund"},
			PopularityScore: 8.2,
		},
		{
			Title:           "Shoe Dog",
			Author:          "Phil Knight",
			Genre:           core.GenreBusiness,
			SubGenre:        "Entrepreneurship",
			Description:     "A memoir by the creator of Nike.",
			Rating:          4.5,
			DifficultyLevel: core.LevelIntermediate,
			InvestmentLevel: core.LevelIntermediate,
			FinancialTopics: []string{"Entrepreneurship", "Business Building", "Leadership"},
			PopularityScore: 8.8,
		},
		{
			Title:           "Good to Great",
			Author:          "Jim Collins",
			Genre:           core.GenreBusiness,
			SubGenre:        "Leadership",
			Description:     "Why some companies make the leap and others don't.",
			Rating:          4.4,
			DifficultyLevel: core.LevelAdvanced,
			InvestmentLevel: core.LevelAdvanced,
			FinancialTopics: []string{"Business Strategy", "Leadership", "Company Analysis"},
			PopularityScore: 8.6,
		},
		{
			Title:           "The Lean Startup",
			Author:          "Eric Ries",
			Genre:           core.GenreBusiness,
			SubGenre:        "Entrepreneurship",
			Description:     "How constant innovation creates radically successful businesses.",
			Rating:          4.3,
			DifficultyLevel: core.LevelIntermediate,
			InvestmentLevel: core.LevelIntermediate,
			FinancialTopics: []string{"Startup Strategy", "Innovation", "Business Model"},
			PopularityScore: 8.4,
		},
	}
	for i := range books {
		books[i].AmazonURL = amazonSearchURL(books[i].Title, books[i].Author)
	}
	return books
}

func amazonSearchURL(title, author string) string {
	return "https://www.amazon.com/s?k=" + url.QueryEscape(title+" "+author)
}
