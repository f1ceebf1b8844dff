package index

import "github.com/Aman-CERP/patrology/internal/corpus"

// DemoCorpus returns a small three-author sample corpus for trying the
// engine without a full corpus export.
func DemoCorpus() []Document {
	return []Document{
		{
			Author: corpus.Author{Name: "Clement of Rome", Dates: "d. c. 99", IsSaint: true},
			Work: corpus.Work{
				Title:    "First Epistle to the Corinthians",
				URL:      "https://www.newadvent.org/fathers/1010.htm",
				WorkType: "epistle",
				Century:  1,
			},
			Chapters: []corpus.Chapter{
				{
					Number: 1,
					Title:  "The Salutation",
					Content: "The church of God which sojourns at Rome, to the church of God sojourning at Corinth, " +
						"to them that are called and sanctified by the will of God, through our Lord Jesus Christ: " +
						"Grace unto you, and peace, from Almighty God through Jesus Christ, be multiplied.",
				},
				{
					Number: 5,
					Title:  "The Martyrdom of Peter and Paul",
					Content: "Let us take the noble examples furnished in our own generation. Through envy and " +
						"jealousy the greatest and most righteous pillars of the church have been persecuted and put to death. " +
						"Let us set before our eyes the illustrious apostles. Peter, through unrighteous envy, endured not one " +
						"or two, but numerous labours; and when he had at length suffered martyrdom, departed to the place of " +
						"glory due to him. Owing to envy, Paul also obtained the reward of patient endurance, after being seven " +
						"times thrown into captivity, compelled to flee, and stoned.",
				},
			},
		},
		{
			Author: corpus.Author{Name: "Augustine of Hippo", Dates: "354-430", IsSaint: true, IsDoctor: true},
			Work: corpus.Work{
				Title:    "Confessions",
				URL:      "https://www.newadvent.org/fathers/1101.htm",
				WorkType: "autobiography",
				Century:  4,
			},
			Chapters: []corpus.Chapter{
				{
					Number: 1,
					Title:  "Book I - Childhood",
					Content: "Great are You, O Lord, and greatly to be praised; great is Your power, and Your wisdom " +
						"is infinite. And You would man praise; man, but a particle of Your creation; man, that bears about him " +
						"his mortality, the witness of his sin, the witness that You resist the proud: yet would man praise You; " +
						"he, but a particle of Your creation. You awaken us to delight in Your praise; for You made us for " +
						"Yourself, and our heart is restless until it rests in You.",
				},
				{
					Number: 10,
					Title:  "Book X - Memory and Time",
					Content: "Late have I loved You, O Beauty ever ancient, ever new, late have I loved You! You were " +
						"within me, but I was outside, and it was there that I searched for You. In my unloveliness I plunged " +
						"into the lovely things which You created. You were with me, but I was not with You. Created things kept " +
						"me from You; yet if they had not been in You they would not have been at all.",
				},
			},
		},
		{
			Author: corpus.Author{Name: "Athanasius", Dates: "c. 296-373", IsSaint: true, IsDoctor: true},
			Work: corpus.Work{
				Title:    "On the Incarnation of the Word",
				URL:      "https://www.newadvent.org/fathers/2802.htm",
				WorkType: "treatise",
				Century:  4,
			},
			Chapters: []corpus.Chapter{
				{
					Number: 1,
					Title:  "Creation and the Fall",
					Content: "For God has not only made us out of nothing; but He gave us freely, by the grace of " +
						"the Word, a life in correspondence with God. But men, having rejected things eternal, and, by counsel " +
						"of the devil, turned to the things of corruption, became the cause of their own corruption in death, " +
						"being, as I said before, by nature corruptible, but destined, by the grace following from partaking of " +
						"the Word, to have escaped their natural state, had they remained good.",
				},
			},
		},
	}
}
